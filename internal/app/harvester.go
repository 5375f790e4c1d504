package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/tagesschau-harvester/internal/config"
	"github.com/samvad-hq/tagesschau-harvester/internal/logger"
	"github.com/samvad-hq/tagesschau-harvester/internal/metrics"
)

// Harvester represents the news harvester runtime. It runs a harvest pass
// immediately and then on every interval until the context is cancelled,
// serving metrics alongside when an address is configured.
type Harvester struct {
	rt       *runtime
	interval time.Duration
	log      logger.Logger
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Harvester{
		rt:       rt,
		interval: cfg.HarvestInterval,
		log:      rt.log,
	}, nil
}

// Run starts the harvest loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.rt == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.rt.close()

	if h.interval <= 0 {
		return fmt.Errorf("harvest interval must be positive")
	}

	if len(h.rt.queries) == 0 {
		h.log.WarnObj("no watch queries enabled; harvester idle", "queries_file", h.rt.cfg.QueriesFile)
		<-ctx.Done()
		return nil
	}

	if addr := h.rt.cfg.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, h.rt.registry); err != nil {
				h.log.ErrorObj("metrics server failed", "error", err)
			}
		}()
		h.log.InfoObj("metrics server listening", "metrics_addr", addr)
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"queries_count":    len(h.rt.queries),
		"publishers_count": h.rt.fanout.Size(),
		"harvest_interval": h.interval.String(),
	})

	if err := h.rt.pass(ctx); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err)
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := h.rt.pass(ctx); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err)
			}
		}
	}
}
