package harvest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/samvad-hq/tagesschau-harvester/internal/logger"
	"github.com/samvad-hq/tagesschau-harvester/pkg/httpclient"
	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB

	// ogImageVariant keys the teaser image taken from og:image.
	ogImageVariant = "og"
)

// Enricher fetches text article pages and fills a missing first sentence,
// teaser image or title from their OG tags.
type Enricher struct {
	client   httpclient.Client
	headers  map[string]string
	limiter  *rate.Limiter
	log      logger.Logger
	failures interface{ RecordEnrichFailure() }
}

// NewEnricher builds an Enricher issuing at most perSecond page requests per
// second; perSecond <= 0 disables throttling.
func NewEnricher(client httpclient.Client, headers map[string]string, perSecond float64, log logger.Logger) *Enricher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Enricher{
		client:  client,
		headers: headers,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// WithFailureRecorder counts pages that could not be scraped.
func (e *Enricher) WithFailureRecorder(r interface{ RecordEnrichFailure() }) *Enricher {
	e.failures = r
	return e
}

// Enrich returns items with text articles completed from their pages. Videos
// and complete articles pass through untouched. On cancellation the rest of
// the items are returned as they are.
func (e *Enricher) Enrich(ctx context.Context, items []tagesschau.Content) []tagesschau.Content {
	out := append([]tagesschau.Content(nil), items...)

	for i, c := range items {
		article, err := c.Text()
		if err != nil || !needsEnrichment(article) {
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return out
		}

		enriched, err := e.fetchAndParse(ctx, article)
		if err != nil {
			if e.failures != nil {
				e.failures.RecordEnrichFailure()
			}
			e.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"url":   article.URL,
				"error": err.Error(),
			})
			continue
		}
		out[i] = tagesschau.NewTextContent(enriched)
	}

	return out
}

func needsEnrichment(a tagesschau.TextArticle) bool {
	if a.URL == "" {
		return false
	}
	return a.FirstSentence == "" || a.Image == nil || a.Title == ""
}

func (e *Enricher) fetchAndParse(ctx context.Context, art tagesschau.TextArticle) (tagesschau.TextArticle, error) {
	resp, err := e.client.Get(ctx, art.URL, e.headers)
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Close()

	if resp.StatusCode() != http.StatusOK {
		return art, fmt.Errorf("status %d", resp.StatusCode())
	}

	body, err := resp.ReadBodyLimit(maxHTMLBodyBytes)
	if err != nil {
		return art, fmt.Errorf("read body: %w", err)
	}

	meta, err := parseMeta(body)
	if err != nil {
		return art, err
	}

	updated := art
	if updated.Title == "" {
		updated.Title = meta.Title
	}
	if updated.FirstSentence == "" {
		updated.FirstSentence = meta.Description
	}
	if updated.Image == nil && meta.ImageURL != "" {
		updated.Image = &tagesschau.Image{
			Title:    meta.Title,
			Variants: map[string]string{ogImageVariant: meta.ImageURL},
		}
	}
	return updated, nil
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	pm := pageMeta{}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	pm.Title = firstNonEmpty(
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	pm.Description = firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
	)
	pm.ImageURL = extract(`meta[property="og:image"]`)

	return pm, nil
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
