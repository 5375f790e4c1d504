package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/tagesschau-harvester/internal/config"
	"github.com/samvad-hq/tagesschau-harvester/internal/logger"
)

// Collector runs a single harvest pass and exits, for cron style scheduling.
type Collector struct {
	rt *runtime
}

// NewCollector builds a one-shot runtime from config files.
func NewCollector(ctx context.Context, cfg *config.Config, log logger.Logger) (*Collector, error) {
	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Collector{rt: rt}, nil
}

// Collect runs every enabled watch query once and releases all resources.
func (c *Collector) Collect(ctx context.Context) error {
	if c == nil || c.rt == nil {
		return fmt.Errorf("collector is not initialized")
	}
	defer c.rt.close()

	if len(c.rt.queries) == 0 {
		c.rt.log.WarnObj("no watch queries enabled; nothing to collect", "queries_file", c.rt.cfg.QueriesFile)
		return nil
	}
	return c.rt.pass(ctx)
}
