/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/SoorajChandran/mcp-jira-server/internal/adapters/jira"
    "github.com/SoorajChandran/mcp-jira-server/internal/config"
    httpx "github.com/SoorajChandran/mcp-jira-server/internal/http"
    "github.com/SoorajChandran/mcp-jira-server/internal/jobs"
    "github.com/SoorajChandran/mcp-jira-server/internal/logger"
    "github.com/SoorajChandran/mcp-jira-server/internal/services"
)

func main() {
    cfg, err := config.Load()
    log := logger.New(cfg)
    if err != nil {
        log.Fatal().Err(err).Msg("configuration error")
    }

    // Adapters
    jc := jira.NewClient(cfg, log)

    // Services
    svc := services.NewService(cfg, log, jc)

    // HTTP server (Gin)
    router := httpx.NewRouter(cfg, log, svc, jc)

    // Connectivity watchdog
    cron := jobs.NewCron(cfg, log, jc)
    cron.Start()
    defer cron.Stop()

    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()
    log.Info().Str("addr", cfg.HTTPAddr).Msg("mcp server listening")

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
