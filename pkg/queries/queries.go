package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samvad-hq/tagesschau-harvester/pkg/tagesschau"
	"gopkg.in/yaml.v3"
)

// Package queries loads the watch queries the harvester runs each pass.

const (
	KindAll   = "all"
	KindText  = "text"
	KindVideo = "video"
)

// WatchQuery is one configured query against the news endpoint.
type WatchQuery struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Ressort      string   `json:"ressort" yaml:"ressort"`
	Regions      []string `json:"regions" yaml:"regions"`
	Kind         string   `json:"kind" yaml:"kind"`
	LookbackDays int      `json:"lookback_days" yaml:"lookback_days"`
	Enabled      *bool    `json:"enabled" yaml:"enabled"`

	ressort tagesschau.Ressort
	regions []tagesschau.Region
}

type registryFile struct {
	Queries []WatchQuery `json:"queries" yaml:"queries"`
}

// Registry holds validated watch queries in file order.
type Registry struct {
	mu      sync.RWMutex
	queries []WatchQuery
	idx     map[string]WatchQuery
}

// LoadRegistry loads watch queries from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("queries file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Queries...)
}

// NewRegistry validates the given queries and indexes them by id.
func NewRegistry(queries ...WatchQuery) (*Registry, error) {
	if len(queries) == 0 {
		return nil, errors.New("queries file contains no queries entries")
	}

	reg := &Registry{
		queries: make([]WatchQuery, 0, len(queries)),
		idx:     make(map[string]WatchQuery, len(queries)),
	}
	for i := range queries {
		q := sanitizeQuery(queries[i])
		if err := resolveQuery(&q); err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		if _, exists := reg.idx[q.ID]; exists {
			return nil, fmt.Errorf("duplicate query id %q", q.ID)
		}
		reg.queries = append(reg.queries, q)
		reg.idx[q.ID] = q
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("queries file format not recognized (expected YAML or JSON)")
}

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s queries: %w", name, err)
	}
	return reg, nil
}

func sanitizeQuery(q WatchQuery) WatchQuery {
	q.ID = strings.TrimSpace(q.ID)
	q.Name = strings.TrimSpace(q.Name)
	q.Ressort = strings.ToLower(strings.TrimSpace(q.Ressort))
	q.Kind = strings.ToLower(strings.TrimSpace(q.Kind))
	if q.Kind == "" {
		q.Kind = KindAll
	}
	if q.Name == "" {
		q.Name = q.ID
	}
	if q.Enabled == nil {
		def := true
		q.Enabled = &def
	}

	regions := make([]string, 0, len(q.Regions))
	for _, r := range q.Regions {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}
	q.Regions = regions
	return q
}

// resolveQuery validates q and parses its ressort and regions.
func resolveQuery(q *WatchQuery) error {
	if q.ID == "" {
		return errors.New("id is required")
	}
	switch q.Kind {
	case KindAll, KindText, KindVideo:
	default:
		return fmt.Errorf("kind %q is invalid for query %q (want all, text or video)", q.Kind, q.ID)
	}
	if q.LookbackDays < 0 {
		return fmt.Errorf("lookback_days must not be negative for query %q", q.ID)
	}

	ressort, err := tagesschau.ParseRessort(q.Ressort)
	if err != nil {
		return fmt.Errorf("query %q: %w", q.ID, err)
	}
	q.ressort = ressort

	q.regions = make([]tagesschau.Region, 0, len(q.Regions))
	for _, name := range q.Regions {
		region, err := tagesschau.ParseRegion(name)
		if err != nil {
			return fmt.Errorf("query %q: %w", q.ID, err)
		}
		q.regions = append(q.regions, region)
	}
	return nil
}

// All returns all configured queries.
func (r *Registry) All() []WatchQuery {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]WatchQuery, len(r.queries))
	copy(out, r.queries)
	return out
}

// Enabled returns queries that are enabled.
func (r *Registry) Enabled() []WatchQuery {
	all := r.All()
	out := make([]WatchQuery, 0, len(all))
	for _, q := range all {
		if q.EnabledValue() {
			out = append(out, q)
		}
	}
	return out
}

// ByID returns the query with the given id.
func (r *Registry) ByID(id string) (WatchQuery, bool) {
	if r == nil {
		return WatchQuery{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return WatchQuery{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.idx[id]
	return q, ok
}

// EnabledValue returns the enabled flag defaulting to true.
func (q WatchQuery) EnabledValue() bool {
	if q.Enabled == nil {
		return true
	}
	return *q.Enabled
}

// Lookback returns the number of days to query, falling back to def.
func (q WatchQuery) Lookback(def int) int {
	if q.LookbackDays > 0 {
		return q.LookbackDays
	}
	if def > 0 {
		return def
	}
	return 1
}

// ToQuery builds the client query ending at today. Results are sorted by date.
func (q WatchQuery) ToQuery(today tagesschau.Date, defaultLookback int) tagesschau.Query {
	timeframe := tagesschau.OnDate(today)
	if n := q.Lookback(defaultLookback); n > 1 {
		timeframe = tagesschau.InRange(tagesschau.LastDays(today, n))
	}
	return tagesschau.NewQuery(
		tagesschau.WithRessort(q.ressort),
		tagesschau.WithRegions(q.regions...),
		tagesschau.WithTimeframe(timeframe),
		tagesschau.WithSorted(true),
	)
}

// Matches reports whether c is of the kind this query collects.
func (q WatchQuery) Matches(c tagesschau.Content) bool {
	switch q.Kind {
	case KindText:
		return c.IsText()
	case KindVideo:
		return c.IsVideo()
	default:
		return true
	}
}
