/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/SoorajChandran/mcp-jira-server/internal/config"
    "github.com/SoorajChandran/mcp-jira-server/internal/domain"
    "github.com/rs/zerolog"
)

type dispatcher interface {
    Handle(ctx context.Context, msg domain.Message) domain.Envelope
}

type pinger interface {
    Myself(ctx context.Context) (map[string]any, error)
}

type Handlers struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  dispatcher
    jira pinger
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc dispatcher, jc pinger) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc, jira: jc}
}

// MCP validates the request shape, then dispatches the command under the
// configured deadline. Business errors still answer 200 with an error
// envelope; only request-shape problems and timeouts change the HTTP status.
func (h *Handlers) MCP(c *gin.Context) {
    if c.ContentType() != "application/json" {
        c.JSON(http.StatusBadRequest, domain.Fail("Content-Type must be application/json"))
        return
    }
    var msg domain.Message
    if err := c.ShouldBindJSON(&msg); err != nil {
        c.JSON(http.StatusBadRequest, domain.Fail("Invalid JSON payload"))
        return
    }

    ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
    defer cancel()

    done := make(chan domain.Envelope, 1)
    go func() {
        defer func() {
            if r := recover(); r != nil {
                h.log.Error().Any("panic", r).Str("command", msg.Command).Msg("handler panic")
                done <- domain.Fail("An unexpected error occurred")
            }
        }()
        done <- h.svc.Handle(ctx, msg)
    }()

    select {
    case env := <-done:
        c.JSON(http.StatusOK, env)
    case <-ctx.Done():
        h.log.Error().Str("command", msg.Command).Msg("request timed out")
        c.JSON(http.StatusGatewayTimeout, domain.Fail("Request timed out"))
    }
}

// Health pings Jira and reports connection state with a timestamp.
func (h *Handlers) Health(c *gin.Context) {
    ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
    defer cancel()
    ts := time.Now().UTC().Format(time.RFC3339)
    if _, err := h.jira.Myself(ctx); err != nil {
        h.log.Error().Err(err).Msg("jira connection test failed")
        c.JSON(http.StatusInternalServerError, gin.H{"status": "unhealthy", "error": err.Error(), "timestamp": ts})
        return
    }
    c.JSON(http.StatusOK, gin.H{"status": "healthy", "jira_connection": "ok", "timestamp": ts})
}
