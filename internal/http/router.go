/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "net/http"

    "github.com/gin-contrib/cors"
    "github.com/gin-gonic/gin"
    "github.com/SoorajChandran/mcp-jira-server/internal/config"
    "github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc dispatcher, jc pinger) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        c.Next()
        log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })
    r.Use(cors.New(cors.Config{
        AllowAllOrigins: true,
        AllowMethods:    []string{"POST", "GET", "OPTIONS"},
        AllowHeaders:    []string{"*"},
        ExposeHeaders:   []string{"*"},
    }))

    h := NewHandlers(cfg, log, svc, jc)

    r.POST("/mcp", h.MCP)
    r.GET("/health", h.Health)
    // pass-through static serving for anything else
    r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))

    return r
}
