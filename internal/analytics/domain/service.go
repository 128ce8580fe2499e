package domain

import (
	"context"
	"errors"
	"time"
)

// SummarizeRequest bounds are inclusive; nil means unbounded.
type SummarizeRequest struct {
	StartDate *time.Time
	EndDate   *time.Time
	EventType string
}

type Service interface {
	Summarize(ctx context.Context, req SummarizeRequest) (Summary, error)
}

var ErrInvalidWindow = errors.New("invalid_window")
