package jobs

import (
    "context"
    "time"

    "github.com/SoorajChandran/mcp-jira-server/internal/config"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type pinger interface {
    Myself(ctx context.Context) (map[string]any, error)
}

// Cron runs a periodic Jira connectivity probe so reachability problems
// show up in the logs before the first failing request does.
type Cron struct {
    cfg  config.Config
    log  zerolog.Logger
    jira pinger
    c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, jc pinger) *Cron {
    loc := time.Local
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, jira: jc, c: c}
    _, _ = c.AddFunc(cfg.HealthCron, cr.probe)
    return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) probe() {
    ctx, cancel := context.WithTimeout(context.Background(), cr.cfg.RequestTimeout)
    defer cancel()
    if _, err := cr.jira.Myself(ctx); err != nil {
        cr.log.Error().Err(err).Msg("cron: jira unreachable")
        return
    }
    cr.log.Debug().Msg("cron: jira connection ok")
}
