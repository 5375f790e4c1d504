package tagesschau

// Query is an immutable request description: category, regions, timeframe
// and whether the aggregate is sorted by publish time.
type Query struct {
	ressort   Ressort
	regions   RegionSet
	timeframe Timeframe
	sorted    bool
}

// QueryOption configures a Query.
type QueryOption func(*Query)

// WithRessort restricts results to one category.
func WithRessort(r Ressort) QueryOption {
	return func(q *Query) { q.ressort = r }
}

// WithRegions restricts results to the given federal states.
func WithRegions(regions ...Region) QueryOption {
	return func(q *Query) { q.regions = NewRegionSet(regions...) }
}

// WithRegionSet is WithRegions for an existing set. The set is copied.
func WithRegionSet(set RegionSet) QueryOption {
	return func(q *Query) { q.regions = set.clone() }
}

// WithTimeframe selects the dates to query.
func WithTimeframe(t Timeframe) QueryOption {
	return func(q *Query) { q.timeframe = t }
}

// WithSorted enables a stable ascending sort by publish time.
func WithSorted(sorted bool) QueryOption {
	return func(q *Query) { q.sorted = sorted }
}

// NewQuery builds a Query. Defaults: no ressort, all regions, today, unsorted.
func NewQuery(opts ...QueryOption) Query {
	q := Query{regions: RegionSet{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&q)
		}
	}
	return q
}

// With returns a copy of q with opts applied on top.
func (q Query) With(opts ...QueryOption) Query {
	cp := q
	cp.regions = q.regions.clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&cp)
		}
	}
	return cp
}

func (q Query) Ressort() Ressort     { return q.ressort }
func (q Query) Regions() RegionSet   { return q.regions.clone() }
func (q Query) Timeframe() Timeframe { return q.timeframe }
func (q Query) Sorted() bool         { return q.sorted }
