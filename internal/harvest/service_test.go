package harvest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/tagesschau-harvester/pkg/publishers"
	"github.com/samvad-hq/tagesschau-harvester/pkg/queries"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

// fakeNewsClient returns preset items and records the queries it received.
type fakeNewsClient struct {
	today   tagesschau.Date
	items   []tagesschau.Content
	err     error
	todayFn func() (tagesschau.Date, error)
	queries []tagesschau.Query
}

func (f *fakeNewsClient) Today() (tagesschau.Date, error) {
	if f.todayFn != nil {
		return f.todayFn()
	}
	return f.today, nil
}

func (f *fakeNewsClient) AllArticles(_ context.Context, q tagesschau.Query) ([]tagesschau.Content, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu      sync.Mutex
	events  []publishers.Event
	errOnID string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.ItemID == f.errOnID {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeDeduper tracks seen IDs.
type fakeDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	failID  string
	failErr error
}

func (f *fakeDeduper) SeenItem(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failID && f.failErr != nil {
		return false, f.failErr
	}
	return f.seen[id], nil
}

func (f *fakeDeduper) MarkItem(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[id] = true
	return nil
}

type fakeRecorder struct {
	noopRecorder
	skipped   map[string]int
	published int
	failures  int
	queries   int
}

func (r *fakeRecorder) RecordItemSkipped(_, reason string) {
	if r.skipped == nil {
		r.skipped = map[string]int{}
	}
	r.skipped[reason]++
}
func (r *fakeRecorder) RecordItemPublished(string)  { r.published++ }
func (r *fakeRecorder) RecordPublishFailure(string) { r.failures++ }
func (r *fakeRecorder) RecordQuery(string, time.Duration, error) {
	r.queries++
}

// fakeEnricher prefixes titles of text articles.
type fakeEnricher struct{ prefix string }

func (f fakeEnricher) Enrich(_ context.Context, items []tagesschau.Content) []tagesschau.Content {
	out := make([]tagesschau.Content, len(items))
	for i, c := range items {
		a, err := c.Text()
		if err != nil {
			out[i] = c
			continue
		}
		a.Title = f.prefix + a.Title
		out[i] = tagesschau.NewTextContent(a)
	}
	return out
}

func text(id, title string) tagesschau.Content {
	return tagesschau.NewTextContent(tagesschau.TextArticle{
		Item: tagesschau.Item{SophoraID: id, Title: title},
		URL:  "https://www.tagesschau.de/" + id + ".html",
	})
}

func video(id string) tagesschau.Content {
	return tagesschau.NewVideoContent(tagesschau.Video{
		Item:    tagesschau.Item{ExternalID: id, Title: "video " + id},
		Streams: map[string]string{"h264m": "https://media/" + id},
	})
}

func watchQuery(t *testing.T, wq queries.WatchQuery) queries.WatchQuery {
	t.Helper()
	reg, err := queries.NewRegistry(wq)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	out, _ := reg.ByID(wq.ID)
	return out
}

func TestRunQueryPublishesFreshItemsOnly(t *testing.T) {
	client := &fakeNewsClient{
		today: tagesschau.MustDate(2024, time.March, 1),
		items: []tagesschau.Content{text("a1", "old"), text("a2", "new"), video("v1")},
	}
	deduper := &fakeDeduper{seen: map[string]bool{"a1": true}}
	pub := &fakePublisher{}
	rec := &fakeRecorder{}

	svc := NewService(client, pub, nil, deduper,
		WithEnricher(fakeEnricher{prefix: "enriched-"}),
		WithRecorder(rec),
	)
	wq := watchQuery(t, queries.WatchQuery{ID: "inland", Ressort: "inland", Kind: queries.KindText})

	res, err := svc.RunQuery(context.Background(), wq)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if res.Fetched != 3 || res.Fresh != 1 || res.Published != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.ItemID != "a2" || evt.Title != "enriched-new" || evt.QueryID != "inland" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if !deduper.seen["a2"] {
		t.Fatalf("MarkItem not called for new item")
	}
	if rec.skipped[skipSeen] != 1 || rec.skipped[skipKind] != 1 || rec.published != 1 {
		t.Fatalf("unexpected metrics %+v", rec)
	}
	if got := client.queries[0].Ressort(); got != tagesschau.RessortInland {
		t.Fatalf("query ressort = %q", got)
	}
}

func TestRunQueryDoesNotMarkFailedItems(t *testing.T) {
	client := &fakeNewsClient{items: []tagesschau.Content{text("bad", "x"), text("good", "y")}}
	deduper := &fakeDeduper{}
	rec := &fakeRecorder{}
	svc := NewService(client, &fakePublisher{errOnID: "bad"}, nil, deduper, WithRecorder(rec))

	res, err := svc.RunQuery(context.Background(), watchQuery(t, queries.WatchQuery{ID: "q"}))
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error mentioning bad item, got %v", err)
	}
	if res.Published != 1 {
		t.Fatalf("expected good item to be published, got %+v", res)
	}
	if deduper.seen["bad"] || !deduper.seen["good"] {
		t.Fatalf("unexpected seen set %v", deduper.seen)
	}
	if rec.failures != 1 {
		t.Fatalf("expected 1 publish failure, got %d", rec.failures)
	}
}

func TestRunQueryDeduplicatesWithinBatch(t *testing.T) {
	client := &fakeNewsClient{items: []tagesschau.Content{text("a1", "first"), text("a1", "again")}}
	pub := &fakePublisher{}
	svc := NewService(client, pub, nil, nil)

	if _, err := svc.RunQuery(context.Background(), watchQuery(t, queries.WatchQuery{ID: "q"})); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Title != "first" {
		t.Fatalf("expected only the first copy, got %+v", pub.events)
	}
}

func TestRunQuerySkipsItemsWhenSeenCheckFails(t *testing.T) {
	client := &fakeNewsClient{items: []tagesschau.Content{text("a1", "x")}}
	pub := &fakePublisher{}
	deduper := &fakeDeduper{failID: "a1", failErr: errors.New("disk")}
	svc := NewService(client, pub, nil, deduper)

	if _, err := svc.RunQuery(context.Background(), watchQuery(t, queries.WatchQuery{ID: "q"})); err == nil {
		t.Fatal("expected store error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("item with unknown state must not be published")
	}
}

func TestRunContinuesAfterFailingQuery(t *testing.T) {
	client := &fakeNewsClient{err: tagesschau.ErrRequestFailed}
	rec := &fakeRecorder{}
	svc := NewService(client, &fakePublisher{}, nil, nil, WithRecorder(rec))

	err := svc.Run(context.Background(), []queries.WatchQuery{
		watchQuery(t, queries.WatchQuery{ID: "a"}),
		watchQuery(t, queries.WatchQuery{ID: "b"}),
	})
	if !errors.Is(err, tagesschau.ErrRequestFailed) {
		t.Fatalf("expected joined request error, got %v", err)
	}
	if len(client.queries) != 2 || rec.queries != 2 {
		t.Fatalf("expected both queries to run, got %d", len(client.queries))
	}
}

func TestRunQueryPropagatesClockError(t *testing.T) {
	client := &fakeNewsClient{todayFn: func() (tagesschau.Date, error) {
		return tagesschau.Date{}, tagesschau.ErrClock
	}}
	svc := NewService(client, &fakePublisher{}, nil, nil)

	if _, err := svc.RunQuery(context.Background(), watchQuery(t, queries.WatchQuery{ID: "q"})); !errors.Is(err, tagesschau.ErrClock) {
		t.Fatalf("expected ErrClock, got %v", err)
	}
	if len(client.queries) != 0 {
		t.Fatal("no request expected without a current date")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeNewsClient{}
	svc := NewService(client, &fakePublisher{}, nil, nil)
	err := svc.Run(ctx, []queries.WatchQuery{watchQuery(t, queries.WatchQuery{ID: "q"})})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(client.queries) != 0 {
		t.Fatalf("no query should run after cancel")
	}
}

func TestRunRequiresQueries(t *testing.T) {
	svc := NewService(&fakeNewsClient{}, &fakePublisher{}, nil, nil)
	if err := svc.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without queries")
	}
}

func TestItemIDFallbacks(t *testing.T) {
	if got := ItemID(text("s1", "t")); got != "s1" {
		t.Fatalf("sophora id expected, got %q", got)
	}
	if got := ItemID(video("e1")); got != "e1" {
		t.Fatalf("external id expected, got %q", got)
	}
	anon := tagesschau.NewTextContent(tagesschau.TextArticle{URL: "https://www.tagesschau.de/x.html"})
	if got := ItemID(anon); got != hashURL("https://www.tagesschau.de/x.html") || len(got) != 40 {
		t.Fatalf("url hash expected, got %q", got)
	}
	if got := ItemID(tagesschau.NewVideoContent(tagesschau.Video{})); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
