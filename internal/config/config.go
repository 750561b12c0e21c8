/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
    "errors"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

type Config struct {
    AppEnv   string
    TZ       string
    HTTPAddr string

    StaticDir string

    JiraBaseURL string
    JiraUser    string
    JiraToken   string
    JiraPAT     string

    RequestTimeout time.Duration
    MaxResults     int

    HealthCron string
}

func getenv(key, def string) string {
    v := os.Getenv(key)
    if v == "" { return def }
    return v
}

func atoi(key string, def int) int {
    v := os.Getenv(key)
    if v == "" { return def }
    i, err := strconv.Atoi(v)
    if err != nil { return def }
    return i
}

func dur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" { return def }
    // plain integer values are treated as seconds
    if n, err := strconv.Atoi(v); err == nil { return time.Duration(n) * time.Second }
    d, err := time.ParseDuration(v)
    if err != nil { return def }
    return d
}

// Load reads configuration from the environment (and .env if present).
// Jira server, user and token are mandatory; startup fails without them.
func Load() (Config, error) {
    _ = godotenv.Load()

    cfg := Config{
        AppEnv:   getenv("APP_ENV", "dev"),
        TZ:       getenv("APP_TZ", ""),
        HTTPAddr: getenv("MCP_SERVER_HOST", "0.0.0.0") + ":" + getenv("MCP_SERVER_PORT", "8000"),

        StaticDir: getenv("STATIC_DIR", "static"),

        JiraBaseURL: strings.TrimRight(getenv("JIRA_SERVER", ""), "/"),
        JiraUser:    getenv("JIRA_USER", ""),
        JiraToken:   getenv("JIRA_TOKEN", ""),
        JiraPAT:     getenv("JIRA_PAT", ""),

        RequestTimeout: dur("JIRA_TIMEOUT", 30*time.Second),
        MaxResults:     atoi("JIRA_MAX_RESULTS", 50),

        HealthCron: getenv("HEALTH_CRON", "*/5 * * * *"),
    }

    if cfg.JiraBaseURL == "" || cfg.JiraUser == "" || cfg.JiraToken == "" {
        return cfg, errors.New("missing required JIRA configuration (JIRA_SERVER, JIRA_USER, JIRA_TOKEN)")
    }
    if cfg.MaxResults <= 0 { cfg.MaxResults = 50 }

    if cfg.TZ != "" {
        if loc, err := time.LoadLocation(cfg.TZ); err == nil { time.Local = loc }
    }
    return cfg, nil
}
