package publishers

import (
	"slices"
	"time"

	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
)

// preferred teaser image variants, largest first.
var imageVariantPreference = []string{"16x9-960", "16x9-640", "1x1-840", "16x9-512"}

// Event represents the payload published downstream.
type Event struct {
	QueryID       string                 `json:"query_id"`
	Kind          tagesschau.ContentKind `json:"kind"`
	ItemID        string                 `json:"item_id"`
	Title         string                 `json:"title"`
	Topline       string                 `json:"topline,omitempty"`
	FirstSentence string                 `json:"first_sentence,omitempty"`
	URL           string                 `json:"url,omitempty"`
	ImageURL      string                 `json:"image_url,omitempty"`
	Ressort       string                 `json:"ressort,omitempty"`
	BreakingNews  bool                   `json:"breaking_news"`
	Tags          []string               `json:"tags,omitempty"`
	PublishedAt   time.Time              `json:"published_at"`
	CollectedAt   time.Time              `json:"collected_at"`
}

// NewEvent constructs an Event for a news item matched by the given query.
func NewEvent(queryID, itemID string, c tagesschau.Content) Event {
	item := c.Item()
	return Event{
		QueryID:       queryID,
		Kind:          c.Kind(),
		ItemID:        itemID,
		Title:         item.Title,
		Topline:       item.Topline,
		FirstSentence: item.FirstSentence,
		URL:           ContentURL(c),
		ImageURL:      imageURL(item.Image),
		Ressort:       item.Ressort,
		BreakingNews:  item.BreakingNews,
		Tags:          item.TagNames(),
		PublishedAt:   item.Date.UTC(),
		CollectedAt:   time.Now().UTC(),
	}
}

// ContentURL returns the public link for c: the web page of a text article,
// or the share URL of a video falling back to its first stream.
func ContentURL(c tagesschau.Content) string {
	if a, err := c.Text(); err == nil {
		if a.URL != "" {
			return a.URL
		}
		return a.ShareURL
	}
	v, err := c.Video()
	if err != nil {
		return ""
	}
	if v.ShareURL != "" {
		return v.ShareURL
	}
	return firstByKey(v.Streams)
}

func imageURL(img *tagesschau.Image) string {
	if img == nil || len(img.Variants) == 0 {
		return ""
	}
	for _, key := range imageVariantPreference {
		if u := img.Variants[key]; u != "" {
			return u
		}
	}
	return firstByKey(img.Variants)
}

func firstByKey(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)
	return m[keys[0]]
}
