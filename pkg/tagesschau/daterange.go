package tagesschau

import "fmt"

// DateRange is an ordered collection of distinct dates.
type DateRange struct {
	dates []Date
}

// Between expands start..end inclusive, one date per day. When end is before
// start the range is empty.
func Between(start, end Date) (DateRange, error) {
	if _, err := NewDate(start.year, start.month, start.day); err != nil {
		return DateRange{}, fmt.Errorf("range start: %w", err)
	}
	if _, err := NewDate(end.year, end.month, end.day); err != nil {
		return DateRange{}, fmt.Errorf("range end: %w", err)
	}

	var dates []Date
	for cur := start; !cur.After(end); cur = cur.Next() {
		dates = append(dates, cur)
	}
	return DateRange{dates: dates}, nil
}

// FromDates wraps caller-supplied dates in their given order. Repeated dates
// keep only their first occurrence.
func FromDates(dates ...Date) DateRange {
	seen := make(map[Date]struct{}, len(dates))
	out := make([]Date, 0, len(dates))
	for _, d := range dates {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return DateRange{dates: out}
}

// LastDays returns the n days ending at (and including) end.
func LastDays(end Date, n int) DateRange {
	if n <= 0 {
		return DateRange{}
	}
	r, _ := Between(end.AddDays(-(n - 1)), end)
	return r
}

// Dates returns a copy of the member dates.
func (r DateRange) Dates() []Date {
	out := make([]Date, len(r.dates))
	copy(out, r.dates)
	return out
}

// Len is the number of dates in the range.
func (r DateRange) Len() int { return len(r.dates) }
