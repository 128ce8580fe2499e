package server

import (
	"errors"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// parseOptionalTime accepts RFC3339 or a bare date. A bare end date covers
// the whole day.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

type dateWindow struct {
	StartDate *time.Time
	EndDate   *time.Time
}

func parseDateWindow(startValue, endValue string) (dateWindow, error) {
	start, err := parseOptionalTime(startValue, false)
	if err != nil {
		return dateWindow{}, newValidationError("start_date", "invalid_start_date", "invalid start_date")
	}
	end, err := parseOptionalTime(endValue, true)
	if err != nil {
		return dateWindow{}, newValidationError("end_date", "invalid_end_date", "invalid end_date")
	}
	return dateWindow{StartDate: start, EndDate: end}, nil
}

// withDefaultWindow fills unset bounds with the trailing window ending now.
func withDefaultWindow(w dateWindow, now time.Time, days int) dateWindow {
	if days <= 0 {
		return w
	}
	if w.EndDate == nil {
		end := now.UTC()
		w.EndDate = &end
	}
	if w.StartDate == nil {
		start := w.EndDate.AddDate(0, 0, -days)
		w.StartDate = &start
	}
	return w
}
