// Package schedule triggers recurring broadcast sessions on a cron spec.
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	logx "botcast/pkg/logx"
)

// Run registers fn on the given cron spec and blocks until ctx is done.
// Overlap protection is fn's job (the dispatch gate already rejects a second
// concurrent session); the runner only triggers.
func Run(ctx context.Context, spec string, log logx.Logger, fn func(context.Context)) error {
	if log.IsZero() {
		log = logx.Nop()
	}

	c := cron.New()
	id, err := c.AddFunc(spec, func() { fn(ctx) })
	if err != nil {
		return fmt.Errorf("cron spec %q: %w", spec, err)
	}

	c.Start()
	log.Info("recurring broadcast scheduled",
		logx.String("spec", spec),
		logx.Time("next_run", c.Entry(id).Next))

	<-ctx.Done()

	// Let a running trigger finish before returning.
	stopped := c.Stop()
	<-stopped.Done()
	log.Info("scheduler stopped")
	return nil
}
