package ratelimit

import (
	"context"
	"time"

	"github.com/smallbiznis/frontdesk/internal/clock"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	DefaultLimit         = 10
	DefaultWindowMinutes = 60
)

type LimiterParams struct {
	fx.In

	DB    *gorm.DB
	Clock clock.Clock
	Repo  eventdomain.Repository
}

// Limiter decides from stored events alone. It keeps no counters, so every
// call re-reads the event store.
type Limiter struct {
	db    *gorm.DB
	clock clock.Clock
	repo  eventdomain.Repository
}

func NewLimiter(p LimiterParams) *Limiter {
	return &Limiter{db: p.DB, clock: p.Clock, repo: p.Repo}
}

// IsLimited reports whether ipAddress already produced at least limit events
// of actionType within the last windowMinutes. Non-positive arguments fall
// back to the defaults.
func (l *Limiter) IsLimited(ctx context.Context, ipAddress, actionType string, limit, windowMinutes int) (bool, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}

	since := l.clock.Now().Add(-time.Duration(windowMinutes) * time.Minute)
	count, err := l.repo.CountSince(ctx, l.db, ipAddress, actionType, since)
	if err != nil {
		return false, err
	}
	return count >= int64(limit), nil
}
