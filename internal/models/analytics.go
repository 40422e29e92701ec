package models

import "time"

// DateLayout is how analytics dates are rendered.
const DateLayout = "2006-01-02"

// AnalyticsPoint is one day of dashboard metrics.
type AnalyticsPoint struct {
	ID                 string  `json:"id"`
	Date               string  `json:"date"`
	PageViews          int     `json:"pageViews"`
	UniqueVisitors     int     `json:"uniqueVisitors"`
	BounceRate         float64 `json:"bounceRate"`
	AvgSessionDuration int     `json:"avgSessionDuration"`
	Conversions        int     `json:"conversions"`
	Revenue            int     `json:"revenue"`
}

// RealtimeSnapshot is the latest reading of the live feed.
type RealtimeSnapshot struct {
	ActiveUsers    int       `json:"activeUsers"`
	PagesPerMinute int       `json:"pagesPerMinute"`
	LastUpdated    time.Time `json:"lastUpdated"`
}
