package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/frontdesk/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) CountSince(ctx context.Context, db *gorm.DB, ipAddress, eventType string, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("ip_address = ? AND event_type = ? AND timestamp >= ?", ipAddress, eventType, since.UTC()).
		Count(&count).Error
	return count, err
}

func (r *repo) Each(ctx context.Context, db *gorm.DB, filter domain.Filter, fn func(*domain.Event) error) error {
	stmt := db.WithContext(ctx).Model(&domain.Event{})
	if filter.Start != nil {
		stmt = stmt.Where("timestamp >= ?", filter.Start.UTC())
	}
	if filter.End != nil {
		stmt = stmt.Where("timestamp <= ?", filter.End.UTC())
	}
	if filter.EventType != "" {
		stmt = stmt.Where("event_type = ?", filter.EventType)
	}

	rows, err := stmt.Order("timestamp ASC").Order("id ASC").Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var event domain.Event
		if err := db.ScanRows(rows, &event); err != nil {
			return err
		}
		if err := fn(&event); err != nil {
			return err
		}
	}
	return rows.Err()
}
