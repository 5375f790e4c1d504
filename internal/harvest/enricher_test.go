package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/tagesschau-harvester/pkg/httpclient"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

const articlePage = `<html><head>
<title>Fallback title</title>
<meta property="og:title" content=" Haushalt beschlossen ">
<meta property="og:description" content="Der Bundestag hat den Haushalt verabschiedet.">
<meta property="og:image" content="https://images.tagesschau.de/haushalt.jpg">
</head><body></body></html>`

type failureCounter struct{ n int }

func (f *failureCounter) RecordEnrichFailure() { f.n++ }

func TestEnricherFillsMissingFields(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("User-Agent") != "harvester-test" {
			t.Errorf("missing user agent header")
		}
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	e := NewEnricher(httpclient.NewRestyClient(time.Second), map[string]string{"User-Agent": "harvester-test"}, 0, nil)
	items := []tagesschau.Content{
		tagesschau.NewTextContent(tagesschau.TextArticle{Item: tagesschau.Item{Title: "Original"}, URL: srv.URL}),
		tagesschau.NewVideoContent(tagesschau.Video{Streams: map[string]string{"h264m": srv.URL}}),
	}

	out := e.Enrich(context.Background(), items)
	a, err := out[0].Text()
	if err != nil {
		t.Fatalf("expected text article: %v", err)
	}
	if a.Title != "Original" {
		t.Fatalf("existing title must be kept, got %q", a.Title)
	}
	if a.FirstSentence != "Der Bundestag hat den Haushalt verabschiedet." {
		t.Fatalf("first sentence = %q", a.FirstSentence)
	}
	if a.Image == nil || a.Image.Variants[ogImageVariant] != "https://images.tagesschau.de/haushalt.jpg" {
		t.Fatalf("image not filled: %#v", a.Image)
	}
	if !out[1].IsVideo() {
		t.Fatal("video must pass through")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected one page fetch, got %d", n)
	}
	if a0, _ := items[0].Text(); a0.FirstSentence != "" {
		t.Fatal("input slice must not be modified")
	}
}

func TestEnricherKeepsItemOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	counter := &failureCounter{}
	e := NewEnricher(httpclient.NewRestyClient(time.Second), nil, 100, nil).WithFailureRecorder(counter)
	in := tagesschau.NewTextContent(tagesschau.TextArticle{URL: srv.URL})

	out := e.Enrich(context.Background(), []tagesschau.Content{in})
	a, _ := out[0].Text()
	if a.FirstSentence != "" || a.URL != srv.URL {
		t.Fatalf("item should be unchanged, got %#v", a)
	}
	if counter.n != 1 {
		t.Fatalf("expected one recorded failure, got %d", counter.n)
	}
}

func TestEnricherSkipsCompleteArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("complete article must not be fetched")
	}))
	defer srv.Close()

	e := NewEnricher(httpclient.NewRestyClient(time.Second), nil, 0, nil)
	in := tagesschau.NewTextContent(tagesschau.TextArticle{
		Item: tagesschau.Item{Title: "t", FirstSentence: "s", Image: &tagesschau.Image{}},
		URL:  srv.URL,
	})
	e.Enrich(context.Background(), []tagesschau.Content{in})
}

func TestEnricherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEnricher(httpclient.NewRestyClient(time.Second), nil, 1, nil)
	in := tagesschau.NewTextContent(tagesschau.TextArticle{URL: "http://127.0.0.1:1/never"})
	out := e.Enrich(ctx, []tagesschau.Content{in})
	if len(out) != 1 {
		t.Fatalf("items must be returned on cancel, got %d", len(out))
	}
}

func TestParseMetaFallsBackToTitleTag(t *testing.T) {
	meta, err := parseMeta([]byte(`<html><head><title> Nur Titel </title><meta name="description" content="desc"></head></html>`))
	if err != nil {
		t.Fatalf("parseMeta: %v", err)
	}
	if meta.Title != "Nur Titel" || meta.Description != "desc" || meta.ImageURL != "" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

// limitRecordingClient serves articlePage and records the read limit used.
type limitRecordingClient struct {
	limit    int64
	fullRead bool
}

type limitRecordingResponse struct{ c *limitRecordingClient }

func (limitRecordingResponse) StatusCode() int { return http.StatusOK }
func (limitRecordingResponse) Close() error    { return nil }

func (r limitRecordingResponse) ReadBody() ([]byte, error) {
	r.c.fullRead = true
	return []byte(articlePage), nil
}

func (r limitRecordingResponse) ReadBodyLimit(limit int64) ([]byte, error) {
	r.c.limit = limit
	return []byte(articlePage), nil
}

func (c *limitRecordingClient) Get(context.Context, string, map[string]string) (httpclient.Response, error) {
	return limitRecordingResponse{c: c}, nil
}

func TestEnricherBoundsPageRead(t *testing.T) {
	client := &limitRecordingClient{}
	e := NewEnricher(client, nil, 0, nil)
	out := e.Enrich(context.Background(), []tagesschau.Content{
		tagesschau.NewTextContent(tagesschau.TextArticle{URL: "https://www.tagesschau.de/inland/haushalt-100.html"}),
	})

	if client.fullRead {
		t.Fatal("page body must not be read without a limit")
	}
	if client.limit != maxHTMLBodyBytes {
		t.Fatalf("read limit = %d, want %d", client.limit, maxHTMLBodyBytes)
	}
	if a, _ := out[0].Text(); a.FirstSentence == "" {
		t.Fatal("expected enrichment from the bounded read")
	}
}
