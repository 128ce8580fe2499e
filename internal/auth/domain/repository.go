package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, operator *Operator) error
	FindByUsername(ctx context.Context, db *gorm.DB, username string) (*Operator, error)
	TouchLastLogin(ctx context.Context, db *gorm.DB, operator *Operator, at time.Time) error
	UpdatePasswordHash(ctx context.Context, db *gorm.DB, operator *Operator, hash string, at time.Time) error
}
