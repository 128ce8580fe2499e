package domain

import (
	"math"
	"sort"

	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
)

// Aggregator folds events into a Summary in a single pass.
type Aggregator struct {
	topPagesLimit int

	total     int64
	byType    map[string]int64
	pageViews map[string]int64
	viewed    map[string]int64
	sessions  map[string]struct{}
	users     map[string]struct{}
	devices   map[string]int64
	countries map[string]int64
}

func NewAggregator(topPagesLimit int) *Aggregator {
	return &Aggregator{
		topPagesLimit: topPagesLimit,
		byType:        map[string]int64{},
		pageViews:     map[string]int64{},
		viewed:        map[string]int64{},
		sessions:      map[string]struct{}{},
		users:         map[string]struct{}{},
		devices:       map[string]int64{},
		countries:     map[string]int64{},
	}
}

func (a *Aggregator) Add(e *eventdomain.Event) {
	if e == nil {
		return
	}
	a.total++
	a.byType[e.EventType]++
	if e.PageURL != "" {
		a.pageViews[e.PageURL]++
		if e.EventType == eventdomain.TypePageView {
			a.viewed[e.PageURL]++
		}
	}
	if e.SessionID != "" {
		a.sessions[e.SessionID] = struct{}{}
	}
	if e.UserID != "" {
		a.users[e.UserID] = struct{}{}
	}
	if e.DeviceType != "" {
		a.devices[e.DeviceType]++
	}
	if e.Country != "" {
		a.countries[e.Country]++
	}
}

func (a *Aggregator) Summary() Summary {
	sessions := int64(len(a.sessions))
	return Summary{
		TotalEvents:      a.total,
		EventsByType:     a.byType,
		PageViews:        a.pageViews,
		UniqueSessions:   sessions,
		UniqueUsers:      int64(len(a.users)),
		DeviceBreakdown:  a.devices,
		CountryBreakdown: a.countries,
		TopPages:         TopPages(a.viewed, a.topPagesLimit),
		FormSubmissions:  a.byType[eventdomain.TypeFormSubmit] + a.byType[eventdomain.TypeContactFormSubmit],
		ConversionRate:   ConversionRate(a.byType[eventdomain.TypeContactFormSubmit], sessions),
	}
}

// TopPages orders by views descending, then page ascending.
func TopPages(views map[string]int64, limit int) []PageCount {
	pages := make([]PageCount, 0, len(views))
	for page, n := range views {
		pages = append(pages, PageCount{Page: page, Views: n})
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Views != pages[j].Views {
			return pages[i].Views > pages[j].Views
		}
		return pages[i].Page < pages[j].Page
	})
	if limit >= 0 && len(pages) > limit {
		pages = pages[:limit]
	}
	return pages
}

// ConversionRate is conversions per session as a percentage with two decimals.
func ConversionRate(conversions, sessions int64) float64 {
	if sessions <= 0 {
		return 0
	}
	return math.Round(float64(conversions)/float64(sessions)*100*100) / 100
}
