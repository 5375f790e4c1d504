package tagesschau

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ContentKind discriminates the Content variants.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindVideo ContentKind = "video"
)

// Tag is a keyword attached to a news item.
type Tag struct {
	Tag string `json:"tag"`
}

// Image is a teaser image with its resolution variants keyed by label.
type Image struct {
	Title     string            `json:"title,omitempty"`
	Copyright string            `json:"copyright,omitempty"`
	AltText   string            `json:"alttext,omitempty"`
	Type      string            `json:"type,omitempty"`
	Variants  map[string]string `json:"imageVariants,omitempty"`
}

// Item holds the fields text articles and videos share. Only Title and Date
// are guaranteed; the API omits the rest inconsistently.
type Item struct {
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Ressort       string    `json:"ressort,omitempty"`
	Type          string    `json:"type,omitempty"`
	BreakingNews  bool      `json:"breakingNews"`
	Image         *Image    `json:"teaserImage,omitempty"`
	Tags          []Tag     `json:"tags,omitempty"`
	SophoraID     string    `json:"sophoraId,omitempty"`
	ExternalID    string    `json:"externalId,omitempty"`
	Topline       string    `json:"topline,omitempty"`
	FirstSentence string    `json:"firstSentence,omitempty"`
	ShareURL      string    `json:"shareURL,omitempty"`
	Details       string    `json:"details,omitempty"`
	RegionID      int       `json:"regionId,omitempty"`
}

// TagNames returns the plain tag strings.
func (i Item) TagNames() []string {
	out := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		if t.Tag != "" {
			out = append(out, t.Tag)
		}
	}
	return out
}

// TextArticle is a written article with a web detail page.
type TextArticle struct {
	Item
	URL string `json:"detailsweb"`
}

// Video is a video item with its stream URLs keyed by quality label.
type Video struct {
	Item
	Streams map[string]string `json:"streams"`
}

// Content is either a TextArticle or a Video.
type Content struct {
	text  *TextArticle
	video *Video
}

// NewTextContent wraps a text article.
func NewTextContent(a TextArticle) Content { return Content{text: &a} }

// NewVideoContent wraps a video.
func NewVideoContent(v Video) Content { return Content{video: &v} }

// Kind reports the variant held; a zero Content has no kind.
func (c Content) Kind() ContentKind {
	switch {
	case c.text != nil:
		return KindText
	case c.video != nil:
		return KindVideo
	default:
		return ""
	}
}

func (c Content) IsText() bool  { return c.text != nil }
func (c Content) IsVideo() bool { return c.video != nil }

// Item returns the shared fields of either variant.
func (c Content) Item() Item {
	switch {
	case c.text != nil:
		return c.text.Item
	case c.video != nil:
		return c.video.Item
	default:
		return Item{}
	}
}

func (c Content) Title() string   { return c.Item().Title }
func (c Content) Date() time.Time { return c.Item().Date }

// Text unwraps a text article; it fails with ErrConversion for videos.
func (c Content) Text() (TextArticle, error) {
	if c.text == nil {
		return TextArticle{}, ErrConversion
	}
	return *c.text, nil
}

// Video unwraps a video; it fails with ErrConversion for text articles.
func (c Content) Video() (Video, error) {
	if c.video == nil {
		return Video{}, ErrConversion
	}
	return *c.video, nil
}

// MarshalJSON encodes the wrapped variant in its wire shape.
func (c Content) MarshalJSON() ([]byte, error) {
	switch {
	case c.text != nil:
		return json.Marshal(c.text)
	case c.video != nil:
		return json.Marshal(c.video)
	default:
		return []byte("null"), nil
	}
}

// requiredFields carries the fields whose presence decides the variant.
type requiredFields struct {
	Title      *string           `json:"title"`
	Date       *time.Time        `json:"date"`
	DetailsWeb *string           `json:"detailsweb"`
	Streams    map[string]string `json:"streams"`
}

type contentDecoder struct {
	kind ContentKind
	fn   func(data []byte, req requiredFields) (Content, error)
}

// contentDecoders are tried in order; the first that accepts the item wins.
var contentDecoders = []contentDecoder{
	{kind: KindText, fn: decodeTextArticle},
	{kind: KindVideo, fn: decodeVideo},
}

// UnmarshalJSON decodes a news item as a text article, falling back to a video.
func (c *Content) UnmarshalJSON(data []byte) error {
	var req requiredFields
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("%w: news item: %v", ErrDeserialization, err)
	}
	if req.Title == nil {
		return fmt.Errorf("%w: news item missing title", ErrDeserialization)
	}
	if req.Date == nil {
		return fmt.Errorf("%w: news item %q missing date", ErrDeserialization, *req.Title)
	}

	errs := make([]error, 0, len(contentDecoders))
	for _, d := range contentDecoders {
		decoded, err := d.fn(data, req)
		if err == nil {
			*c = decoded
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", d.kind, err))
	}
	return fmt.Errorf("%w: news item %q matches no content shape: %v", ErrDeserialization, *req.Title, errors.Join(errs...))
}

func decodeTextArticle(data []byte, req requiredFields) (Content, error) {
	if req.DetailsWeb == nil {
		return Content{}, errors.New("missing detailsweb")
	}
	var art TextArticle
	if err := json.Unmarshal(data, &art); err != nil {
		return Content{}, err
	}
	return NewTextContent(art), nil
}

func decodeVideo(data []byte, req requiredFields) (Content, error) {
	if req.Streams == nil {
		return Content{}, errors.New("missing streams")
	}
	var v Video
	if err := json.Unmarshal(data, &v); err != nil {
		return Content{}, err
	}
	return NewVideoContent(v), nil
}

// Articles is the response envelope of the news endpoint.
type Articles struct {
	News []Content `json:"news"`
}

// DecodeArticles parses a response body. A missing "news" key or any
// undecodable item fails the whole body with ErrDeserialization.
func DecodeArticles(body []byte) (Articles, error) {
	var envelope struct {
		News *[]Content `json:"news"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		if errors.Is(err, ErrDeserialization) {
			return Articles{}, err
		}
		return Articles{}, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	if envelope.News == nil {
		return Articles{}, fmt.Errorf("%w: response has no news field", ErrDeserialization)
	}
	return Articles{News: *envelope.News}, nil
}
