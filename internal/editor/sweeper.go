package editor

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartSweeper schedules r.Sweep(maxIdle) on a cron spec such as "@every 5m".
// The caller stops the returned scheduler on shutdown.
func StartSweeper(r *Registry, spec string, maxIdle time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { r.Sweep(maxIdle) }); err != nil {
		return nil, fmt.Errorf("editor: schedule sweeper: %w", err)
	}
	log.Printf("editor: draft sweeper schedule=%q idle=%s", spec, maxIdle)
	c.Start()
	return c, nil
}
