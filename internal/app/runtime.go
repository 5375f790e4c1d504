package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samvad-hq/tagesschau-harvester/internal/config"
	"github.com/samvad-hq/tagesschau-harvester/internal/harvest"
	"github.com/samvad-hq/tagesschau-harvester/internal/logger"
	"github.com/samvad-hq/tagesschau-harvester/internal/metrics"
	"github.com/samvad-hq/tagesschau-harvester/internal/storage"
	"github.com/samvad-hq/tagesschau-harvester/pkg/httpclient"
	"github.com/samvad-hq/tagesschau-harvester/pkg/publishers"
	"github.com/samvad-hq/tagesschau-harvester/pkg/queries"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

// runtime holds the components shared by the Harvester loop and the one-shot Collector.
type runtime struct {
	cfg      *config.Config
	log      logger.Logger
	queries  []queries.WatchQuery
	fanout   *publishers.Fanout
	store    storage.Store
	service  *harvest.Service
	registry *prometheus.Registry
}

func newRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	queryReg, err := queries.LoadRegistry(cfg.QueriesFile)
	if err != nil {
		return nil, fmt.Errorf("load queries registry: %w", err)
	}
	watch := queryReg.Enabled()
	queryIDs := make([]string, 0, len(watch))
	for _, q := range watch {
		queryIDs = append(queryIDs, q.ID)
	}
	log.InfoObj("queries registry loaded", "queries_meta", map[string]any{
		"count": len(queryIDs),
		"ids":   queryIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		ItemTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"item_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	headers := map[string]string{}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	client := tagesschau.NewClient(
		tagesschau.WithHTTPClient(httpClient),
		tagesschau.WithBaseURL(cfg.APIBaseURL),
		tagesschau.WithHeaders(headers),
		tagesschau.WithTimeZone(cfg.TimeZone),
		tagesschau.WithLogger(log),
		tagesschau.WithObserver(collector),
	)

	opts := []harvest.Option{
		harvest.WithRecorder(collector),
		harvest.WithDefaultLookback(cfg.LookbackDays),
	}
	if cfg.EnrichArticles {
		enricher := harvest.NewEnricher(httpClient, headers, cfg.EnrichRatePerSecond, log).
			WithFailureRecorder(collector)
		opts = append(opts, harvest.WithEnricher(enricher))
	}

	return &runtime{
		cfg:      cfg,
		log:      log,
		queries:  watch,
		fanout:   fanout,
		store:    store,
		service:  harvest.NewService(client, fanout, log, store, opts...),
		registry: registry,
	}, nil
}

// pass performs a single harvest across all enabled watch queries.
func (r *runtime) pass(ctx context.Context) error {
	start := time.Now()
	r.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"queries_count": len(r.queries),
		"started_at":    start.UTC(),
	})
	if err := r.service.Run(ctx, r.queries); err != nil {
		return err
	}
	r.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"queries_count": len(r.queries),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and publisher clients, logging any errors encountered.
func (r *runtime) close() {
	if r == nil {
		return
	}
	if err := errors.Join(r.fanout.Close(), r.store.Close()); err != nil {
		r.log.ErrorObj("runtime close failed", "error", err)
	}
}
