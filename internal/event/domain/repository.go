package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Filter selects events by inclusive time bounds and exact type.
type Filter struct {
	Start     *time.Time
	End       *time.Time
	EventType string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	CountSince(ctx context.Context, db *gorm.DB, ipAddress, eventType string, since time.Time) (int64, error)
	// Each streams matching events in insertion order, stopping at the first error from fn.
	Each(ctx context.Context, db *gorm.DB, filter Filter, fn func(*Event) error) error
}
