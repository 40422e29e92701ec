package analytics

import (
	"math"
	"slices"
	"time"
)

var (
	DefaultMetrics    = []string{"pageViews", "uniqueVisitors", "bounceRate"}
	DefaultDimensions = []string{"date"}
)

const defaultRangeDays = 30

// Filter selects what the analytics views show.
type Filter struct {
	From       time.Time
	To         time.Time
	Metrics    []string
	Dimensions []string
	Segments   []string
}

// DefaultFilter covers the 30 days up to now.
func DefaultFilter(now time.Time) Filter {
	return Filter{
		From:       now.AddDate(0, 0, -defaultRangeDays),
		To:         now,
		Metrics:    slices.Clone(DefaultMetrics),
		Dimensions: slices.Clone(DefaultDimensions),
		Segments:   []string{},
	}
}

// Days is the number of daily points the range asks for. A reversed range
// asks for none.
func (f Filter) Days() int {
	days := int(math.Round(f.To.Sub(f.From).Hours()/24)) + 1
	return max(days, 0)
}

func (f Filter) clone() Filter {
	f.Metrics = slices.Clone(f.Metrics)
	f.Dimensions = slices.Clone(f.Dimensions)
	f.Segments = slices.Clone(f.Segments)
	return f
}

// FilterPatch is a partial Filter; nil fields are left unchanged.
type FilterPatch struct {
	From       *time.Time
	To         *time.Time
	Metrics    []string
	Dimensions []string
	Segments   []string
}

// LastDays asks for the n days ending at now.
func LastDays(now time.Time, n int) *FilterPatch {
	from := now.AddDate(0, 0, -(n - 1))
	return &FilterPatch{From: &from, To: &now}
}

func (p *FilterPatch) apply(f Filter) Filter {
	if p == nil {
		return f
	}
	if p.From != nil {
		f.From = *p.From
	}
	if p.To != nil {
		f.To = *p.To
	}
	if p.Metrics != nil {
		f.Metrics = slices.Clone(p.Metrics)
	}
	if p.Dimensions != nil {
		f.Dimensions = slices.Clone(p.Dimensions)
	}
	if p.Segments != nil {
		f.Segments = slices.Clone(p.Segments)
	}
	return f
}
