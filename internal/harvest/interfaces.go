package harvest

import (
	"context"
	"time"

	"github.com/samvad-hq/tagesschau-harvester/pkg/publishers"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

// NewsClient is the subset of tagesschau.Client the harvester uses.
type NewsClient interface {
	Today() (tagesschau.Date, error)
	AllArticles(ctx context.Context, q tagesschau.Query) ([]tagesschau.Content, error)
}

// ArticleEnricher fills gaps in news items from their web pages.
type ArticleEnricher interface {
	Enrich(ctx context.Context, items []tagesschau.Content) []tagesschau.Content
}

// EventPublisher publishes events downstream and reports how many sinks
// accepted each one.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers published item ids.
type Deduper interface {
	SeenItem(id string) (bool, error)
	MarkItem(id string) error
}

// Recorder receives harvest metrics.
type Recorder interface {
	RecordItemsFetched(queryID string, count int)
	RecordItemSkipped(queryID, reason string)
	RecordItemPublished(queryID string)
	RecordPublishFailure(queryID string)
	RecordQuery(queryID string, duration time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordItemsFetched(string, int)           {}
func (noopRecorder) RecordItemSkipped(string, string)         {}
func (noopRecorder) RecordItemPublished(string)               {}
func (noopRecorder) RecordPublishFailure(string)              {}
func (noopRecorder) RecordQuery(string, time.Duration, error) {}
