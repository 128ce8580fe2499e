package domain

import (
	"context"
	"errors"
)

const (
	MaxEventTypeLength = 50
	MaxCountryLength   = 100
)

// TrackRequest carries an inbound event. IPAddress and UserAgent come from
// RequestMeta; DeviceType overrides classification when set.
type TrackRequest struct {
	EventType      string
	PageURL        string
	UserID         string
	SessionID      string
	Referrer       string
	Country        string
	DeviceType     string
	AdditionalData map[string]any
	IPAddress      string
	UserAgent      string
}

type Service interface {
	Track(ctx context.Context, req TrackRequest) (Event, error)
}

var ErrInvalidEventType = errors.New("invalid_event_type")
