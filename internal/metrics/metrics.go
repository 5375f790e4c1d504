// Package metrics exposes harvester and news API metrics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

const namespace = "tagesschau"

// Collector records news API requests and harvest outcomes.
type Collector struct {
	requests       *prometheus.CounterVec
	requestLatency prometheus.Histogram
	itemsFetched   *prometheus.CounterVec
	itemsSkipped   *prometheus.CounterVec
	itemsPublished *prometheus.CounterVec
	publishFail    *prometheus.CounterVec
	enrichFail     prometheus.Counter
	queryFail      *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "News API requests by response status; status is \"error\" when no response arrived.",
		}, []string{"status"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "News API request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		itemsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_fetched_total",
			Help:      "News items returned per watch query.",
		}, []string{"query"}),
		itemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_skipped_total",
			Help:      "News items skipped because they were already published or filtered out.",
		}, []string{"query", "reason"}),
		itemsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_published_total",
			Help:      "News items delivered to at least one publisher.",
		}, []string{"query"}),
		publishFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "News items no publisher accepted.",
		}, []string{"query"}),
		enrichFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_failures_total",
			Help:      "Article pages that could not be fetched or parsed.",
		}),
		queryFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_failures_total",
			Help:      "Watch query runs that failed.",
		}, []string{"query"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Watch query run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.itemsFetched,
		c.itemsSkipped,
		c.itemsPublished,
		c.publishFail,
		c.enrichFail,
		c.queryFail,
		c.queryLatency,
	)

	return c
}

// ObserveRequest implements tagesschau.RequestObserver.
func (c *Collector) ObserveRequest(_ tagesschau.Date, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.requests.WithLabelValues(label).Inc()
	c.requestLatency.Observe(elapsed.Seconds())
}

func (c *Collector) RecordItemsFetched(queryID string, count int) {
	c.itemsFetched.WithLabelValues(queryID).Add(float64(count))
}

func (c *Collector) RecordItemSkipped(queryID, reason string) {
	c.itemsSkipped.WithLabelValues(queryID, reason).Inc()
}

func (c *Collector) RecordItemPublished(queryID string) {
	c.itemsPublished.WithLabelValues(queryID).Inc()
}

func (c *Collector) RecordPublishFailure(queryID string) {
	c.publishFail.WithLabelValues(queryID).Inc()
}

func (c *Collector) RecordEnrichFailure() {
	c.enrichFail.Inc()
}

// RecordQuery records a finished watch query run.
func (c *Collector) RecordQuery(queryID string, duration time.Duration, err error) {
	c.queryLatency.WithLabelValues(queryID).Observe(duration.Seconds())
	if err != nil {
		c.queryFail.WithLabelValues(queryID).Inc()
	}
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           SetupMetricsRoute(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
