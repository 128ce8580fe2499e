package domain

import "time"

// Summary is computed on demand from the matching events only.
type Summary struct {
	TotalEvents      int64            `json:"total_events"`
	EventsByType     map[string]int64 `json:"events_by_type"`
	PageViews        map[string]int64 `json:"page_views"`
	UniqueSessions   int64            `json:"unique_sessions"`
	UniqueUsers      int64            `json:"unique_users"`
	DeviceBreakdown  map[string]int64 `json:"device_breakdown"`
	CountryBreakdown map[string]int64 `json:"country_breakdown"`
	TopPages         []PageCount      `json:"top_pages"`
	FormSubmissions  int64            `json:"form_submissions"`
	ConversionRate   float64          `json:"conversion_rate"`
	Window           Window           `json:"window"`
}

type PageCount struct {
	Page  string `json:"page"`
	Views int64  `json:"views"`
}

type Window struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}
