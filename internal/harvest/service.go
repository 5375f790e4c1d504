package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/tagesschau-harvester/internal/logger"
	"github.com/samvad-hq/tagesschau-harvester/pkg/publishers"
	"github.com/samvad-hq/tagesschau-harvester/pkg/queries"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

// skip reasons reported to the Recorder.
const (
	skipKind = "kind"
	skipNoID = "no_id"
	skipSeen = "seen"
)

// Service runs watch queries against the news API and publishes new items.
type Service struct {
	client    NewsClient
	publisher EventPublisher
	enricher  ArticleEnricher
	store     Deduper
	metrics   Recorder
	log       logger.Logger
	lookback  int
}

// Option customises a Service.
type Option func(*Service)

// WithEnricher enables article page enrichment.
func WithEnricher(e ArticleEnricher) Option {
	return func(s *Service) { s.enricher = e }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithDefaultLookback sets the days queried for watch queries without their own lookback.
func WithDefaultLookback(days int) Option {
	return func(s *Service) { s.lookback = days }
}

// NewService wires a harvest service. A nil store disables deduplication.
func NewService(client NewsClient, pub EventPublisher, log logger.Logger, store Deduper, opts ...Option) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	s := &Service{
		client:    client,
		publisher: pub,
		store:     store,
		metrics:   noopRecorder{},
		log:       log,
		lookback:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result summarises one watch query run.
type Result struct {
	Fetched   int
	Fresh     int
	Published int
}

// Run executes a harvest pass for all given watch queries. Failing queries
// do not stop the others; their errors are joined.
func (s *Service) Run(ctx context.Context, qs []queries.WatchQuery) error {
	if s == nil || s.client == nil || s.publisher == nil {
		return fmt.Errorf("harvest service is not initialized")
	}
	if len(qs) == 0 {
		return fmt.Errorf("no watch queries configured")
	}

	errs := s.runAll(ctx, qs)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, qs []queries.WatchQuery) []error {
	errs := make([]error, 0, len(qs))

	for _, wq := range qs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		res, err := s.RunQuery(ctx, wq)
		s.metrics.RecordQuery(wq.ID, time.Since(start), err)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("watch query failed", "query_error", map[string]any{
				"query_id": wq.ID,
				"error":    err.Error(),
			})
			continue
		}

		s.log.InfoObj("watch query completed", "query_result", map[string]any{
			"query_id":  wq.ID,
			"fetched":   res.Fetched,
			"fresh":     res.Fresh,
			"published": res.Published,
		})
	}

	return errs
}

// RunQuery fetches one watch query and publishes the items not seen before.
// Items are marked seen only after at least one publisher accepted them.
func (s *Service) RunQuery(ctx context.Context, wq queries.WatchQuery) (Result, error) {
	today, err := s.client.Today()
	if err != nil {
		return Result{}, fmt.Errorf("query %s: %w", wq.ID, err)
	}

	items, err := s.client.AllArticles(ctx, wq.ToQuery(today, s.lookback))
	if err != nil {
		return Result{}, fmt.Errorf("query %s: %w", wq.ID, err)
	}
	s.metrics.RecordItemsFetched(wq.ID, len(items))

	fresh, ids, errs := s.freshItems(wq, items)
	res := Result{Fetched: len(items), Fresh: len(fresh)}

	if s.enricher != nil && len(fresh) > 0 {
		fresh = s.enricher.Enrich(ctx, fresh)
	}

	for i, c := range fresh {
		id := ids[i]
		n, err := s.publisher.Publish(ctx, publishers.NewEvent(wq.ID, id, c))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish item %s: %w", id, err))
		}
		if n == 0 {
			s.metrics.RecordPublishFailure(wq.ID)
			continue
		}

		res.Published++
		s.metrics.RecordItemPublished(wq.ID)
		if s.store != nil {
			if err := s.store.MarkItem(id); err != nil {
				errs = append(errs, fmt.Errorf("mark item %s: %w", id, err))
			}
		}
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("query %s: %w", wq.ID, errors.Join(errs...))
	}
	return res, nil
}

// freshItems filters items down to those matching the query kind that were
// not published before, returning them with their ids.
func (s *Service) freshItems(wq queries.WatchQuery, items []tagesschau.Content) ([]tagesschau.Content, []string, []error) {
	var (
		fresh []tagesschau.Content
		ids   []string
		errs  []error
	)
	batch := make(map[string]struct{}, len(items))

	for _, c := range items {
		if !wq.Matches(c) {
			s.metrics.RecordItemSkipped(wq.ID, skipKind)
			continue
		}
		id := ItemID(c)
		if id == "" {
			s.metrics.RecordItemSkipped(wq.ID, skipNoID)
			s.log.WarnObj("news item has no id", "item_title", c.Title())
			continue
		}
		if _, dup := batch[id]; dup {
			s.metrics.RecordItemSkipped(wq.ID, skipSeen)
			continue
		}
		batch[id] = struct{}{}

		if s.store != nil {
			seen, err := s.store.SeenItem(id)
			if err != nil {
				errs = append(errs, fmt.Errorf("check item %s: %w", id, err))
				continue
			}
			if seen {
				s.metrics.RecordItemSkipped(wq.ID, skipSeen)
				continue
			}
		}

		fresh = append(fresh, c)
		ids = append(ids, id)
	}
	return fresh, ids, errs
}
