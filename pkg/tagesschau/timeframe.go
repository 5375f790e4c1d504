package tagesschau

import (
	"fmt"
	"time"
)

type timeframeKind uint8

const (
	timeframeNow timeframeKind = iota
	timeframeSingle
	timeframeRange
)

// Timeframe selects which calendar dates a query covers. The zero value is Now.
type Timeframe struct {
	kind  timeframeKind
	date  Date
	dates DateRange
}

// Now resolves to today's date in the client's time zone.
func Now() Timeframe { return Timeframe{kind: timeframeNow} }

// OnDate selects a single date.
func OnDate(d Date) Timeframe { return Timeframe{kind: timeframeSingle, date: d} }

// InRange selects every date of r.
func InRange(r DateRange) Timeframe { return Timeframe{kind: timeframeRange, dates: r} }

// IsNow reports whether the timeframe tracks the current date.
func (t Timeframe) IsNow() bool { return t.kind == timeframeNow }

func (t Timeframe) String() string {
	switch t.kind {
	case timeframeSingle:
		return "date " + t.date.String()
	case timeframeRange:
		return fmt.Sprintf("range of %d dates", t.dates.Len())
	default:
		return "now"
	}
}

// Resolve returns the concrete dates; now supplies the current instant and
// loc the zone in which "today" is evaluated.
func (t Timeframe) Resolve(now time.Time, loc *time.Location) []Date {
	switch t.kind {
	case timeframeSingle:
		return []Date{t.date}
	case timeframeRange:
		return t.dates.Dates()
	default:
		if loc != nil {
			now = now.In(loc)
		}
		return []Date{DateOf(now)}
	}
}
