package tagesschau

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/tagesschau-harvester/pkg/httpclient"
)

const defaultTimeout = 15 * time.Second

// RequestObserver is notified after every request. status is 0 when the
// transport failed before a response arrived.
type RequestObserver interface {
	ObserveRequest(date Date, status int, elapsed time.Duration)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets the transport.
func WithHTTPClient(client httpclient.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithBaseURL overrides the news endpoint (useful for testing).
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithHeaders adds request headers such as User-Agent.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithTimeZone sets the IANA zone in which "today" is evaluated. Empty means
// the process local zone.
func WithTimeZone(name string) ClientOption {
	return func(c *Client) { c.timeZone = name }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers a per-request observer (metrics).
func WithObserver(obs RequestObserver) ClientOption {
	return func(c *Client) { c.observer = obs }
}

// Client queries the tagesschau news endpoint. One request is issued per
// date, sequentially; the first failing date aborts the whole call.
type Client struct {
	http     httpclient.Client
	baseURL  string
	headers  map[string]string
	timeZone string
	now      func() time.Time
	log      Logger
	observer RequestObserver
}

// NewClient creates a client for DefaultBaseURL backed by resty.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		headers: map[string]string{"Accept": "application/json"},
		now:     time.Now,
		log:     noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(defaultTimeout)
	}
	return c
}

// Today returns the current date in the configured time zone.
func (c *Client) Today() (Date, error) {
	loc, err := c.location()
	if err != nil {
		return Date{}, err
	}
	return DateOf(c.now().In(loc)), nil
}

func (c *Client) location() (*time.Location, error) {
	if c.timeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.timeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: load time zone %q: %v", ErrClock, c.timeZone, err)
	}
	return loc, nil
}

// Dates resolves the timeframe of q to concrete dates.
func (c *Client) Dates(q Query) ([]Date, error) {
	if !q.timeframe.IsNow() {
		return q.timeframe.Resolve(c.now(), nil), nil
	}
	loc, err := c.location()
	if err != nil {
		return nil, err
	}
	return q.timeframe.Resolve(c.now(), loc), nil
}

// Fetch issues the request for a single date and decodes the news items.
func (c *Client) Fetch(ctx context.Context, date Date, q Query) ([]Content, error) {
	url, err := BuildURL(c.baseURL, date, q)
	if err != nil {
		return nil, err
	}
	c.log.DebugObj("tagesschau request", "tagesschau_request", map[string]any{
		"url":  url,
		"date": date.String(),
	})

	start := time.Now()
	resp, err := c.http.Get(ctx, url, c.headers)
	if err != nil {
		c.observe(date, 0, time.Since(start))
		return nil, fmt.Errorf("%w: date %s: %w", ErrRequestFailed, date, err)
	}
	c.observe(date, resp.StatusCode(), time.Since(start))

	if resp.StatusCode() != http.StatusOK {
		_ = resp.Close()
		return nil, &InvalidResponseError{StatusCode: resp.StatusCode(), URL: url}
	}

	body, err := resp.ReadBody()
	if err != nil {
		return nil, fmt.Errorf("%w: date %s: %w", ErrBodyRead, date, err)
	}

	articles, err := DecodeArticles(body)
	if err != nil {
		return nil, fmt.Errorf("date %s: %w", date, err)
	}
	return articles.News, nil
}

// AllArticles fetches every date of q's timeframe in order and concatenates
// the results, sorting them by publish time when q is sorted.
func (c *Client) AllArticles(ctx context.Context, q Query) ([]Content, error) {
	dates, err := c.Dates(q)
	if err != nil {
		return nil, err
	}

	content := make([]Content, 0)
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
		items, err := c.Fetch(ctx, date, q)
		if err != nil {
			return nil, err
		}
		c.log.DebugObj("tagesschau date fetched", "tagesschau_result", map[string]any{
			"date":  date.String(),
			"items": len(items),
		})
		content = append(content, items...)
	}

	if q.sorted {
		SortByDate(content)
	}
	return content, nil
}

// TextArticles is AllArticles restricted to text articles.
func (c *Client) TextArticles(ctx context.Context, q Query) ([]TextArticle, error) {
	all, err := c.AllArticles(ctx, q)
	if err != nil {
		return nil, err
	}
	return TextOnly(all), nil
}

// VideoArticles is AllArticles restricted to videos.
func (c *Client) VideoArticles(ctx context.Context, q Query) ([]Video, error) {
	all, err := c.AllArticles(ctx, q)
	if err != nil {
		return nil, err
	}
	return VideoOnly(all), nil
}

func (c *Client) observe(date Date, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(date, status, elapsed)
	}
}
