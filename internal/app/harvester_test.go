package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/samvad-hq/tagesschau-harvester/internal/config"
	"github.com/samvad-hq/tagesschau-harvester/pkg/publishers"
)

const newsJSON = `{"news":[
  {"sophoraId":"inland-100","title":"Haushalt beschlossen","date":"2024-03-01T09:00:00+01:00","ressort":"inland",
   "detailsweb":"https://www.tagesschau.de/inland/haushalt-100.html"},
  {"externalId":"video-7","title":"tagesschau 20 Uhr","date":"2024-03-01T20:00:00+01:00",
   "streams":{"h264m":"https://media.tagesschau.de/video-7.mp4"}}
]}`

type sink struct {
	mu     sync.Mutex
	events []publishers.Event
}

func (s *sink) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		s.mu.Lock()
		s.events = append(s.events, evt)
		s.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) (*config.Config, *sink, *[]string) {
	t.Helper()
	var (
		mu     sync.Mutex
		params []string
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		params = append(params, r.URL.RawQuery)
		mu.Unlock()
		if r.Header.Get("User-Agent") != "harvester-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(newsJSON))
	}))
	t.Cleanup(api.Close)

	s := &sink{}
	hook := httptest.NewServer(s.handler(t))
	t.Cleanup(hook.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		AppName:                "tagesschau-harvester",
		APIBaseURL:             api.URL,
		HTTPTimeout:            2 * time.Second,
		UserAgent:              "harvester-test",
		TimeZone:               "Europe/Berlin",
		HarvestInterval:        time.Hour,
		LookbackDays:           1,
		EnrichRatePerSecond:    1,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(dir, "seen.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
		QueriesFile: writeFile(t, dir, "queries.yaml", `
queries:
  - id: inland
    ressort: inland
    regions: [berlin]
    kind: text
`),
		PublishersFile: writeFile(t, dir, "publishers.yaml", `
publishers:
  - id: hook
    type: http
    http:
      url: `+hook.URL+`
`),
	}
	return cfg, s, &params
}

func TestCollectorPublishesOncePerItem(t *testing.T) {
	cfg, s, params := testConfig(t)

	collector, err := NewCollector(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	if err := collector.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if s.count() != 1 {
		t.Fatalf("expected 1 event, got %d", s.count())
	}
	evt := s.events[0]
	if evt.QueryID != "inland" || evt.ItemID != "inland-100" || evt.URL != "https://www.tagesschau.de/inland/haushalt-100.html" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if len(*params) != 1 {
		t.Fatalf("expected one API request, got %v", *params)
	}

	// A second run over the same store must not republish.
	again, err := NewCollector(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	if err := again.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if s.count() != 1 {
		t.Fatalf("item republished, got %d events", s.count())
	}
}

func TestHarvesterRunStopsOnCancel(t *testing.T) {
	cfg, s, _ := testConfig(t)

	h, err := NewHarvester(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for s.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("harvester did not stop")
	}
	if s.count() != 1 {
		t.Fatalf("expected initial pass to publish 1 event, got %d", s.count())
	}
}

func TestNewHarvesterRequiresPublishers(t *testing.T) {
	cfg, _, _ := testConfig(t)
	cfg.PublishersFile = writeFile(t, t.TempDir(), "publishers.yaml", `
publishers:
  - id: hook
    type: http
    enabled: false
    http:
      url: https://example.com
`)
	if _, err := NewHarvester(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without enabled publishers")
	}
}

func TestNewHarvesterRejectsNilConfig(t *testing.T) {
	if _, err := NewHarvester(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
