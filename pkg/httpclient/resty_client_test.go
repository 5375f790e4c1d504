package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRestyClientGetSendsHeadersAndStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "harvester-test" {
			t.Errorf("User-Agent = %q", got)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"news":[]}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"User-Agent": "harvester-test"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("StatusCode = %d", resp.StatusCode())
	}
	body, err := resp.ReadBody()
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if string(body) != `{"news":[]}` {
		t.Fatalf("body = %q", body)
	}
}

func TestRestyClientReadBodyLimitTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Close()

	body, err := resp.ReadBodyLimit(100)
	if err != nil {
		t.Fatalf("ReadBodyLimit: %v", err)
	}
	if len(body) != 100 {
		t.Fatalf("len(body) = %d, want 100", len(body))
	}
}

func TestRestyClientCloseDiscardsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("StatusCode = %d", resp.StatusCode())
	}
	if err := resp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRestyClientGetTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewRestyClient(time.Second).Get(context.Background(), url, nil); err == nil {
		t.Fatal("expected error for closed server")
	}
}
