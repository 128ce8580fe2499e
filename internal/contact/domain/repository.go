package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	Status    Status
	Priority  Priority
	StartDate *time.Time
	EndDate   *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, req *ContactRequest) error
	InsertFormMetric(ctx context.Context, db *gorm.DB, metric *FormInteractionMetric) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*ContactRequest, error)
	// FindByIDForUpdate row-locks on dialects that support it.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id string) (*ContactRequest, error)
	FindFormMetric(ctx context.Context, db *gorm.DB, formID string) (*FormInteractionMetric, error)
	Update(ctx context.Context, db *gorm.DB, req *ContactRequest) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]ContactRequest, error)
}
