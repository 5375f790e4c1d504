package httpclient

import "context"

// Response is a minimal HTTP response contract. The body is streamed: callers
// read it with ReadBody or ReadBodyLimit, or discard it with Close.
type Response interface {
	StatusCode() int
	ReadBody() ([]byte, error)
	// ReadBodyLimit reads at most limit bytes and drops the rest.
	ReadBodyLimit(limit int64) ([]byte, error)
	Close() error
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
