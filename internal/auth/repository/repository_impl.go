package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/frontdesk/internal/auth/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, operator *domain.Operator) error {
	return db.WithContext(ctx).Create(operator).Error
}

func (r *repo) FindByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Operator, error) {
	var operator domain.Operator
	err := db.WithContext(ctx).Where("username = ?", username).First(&operator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

func (r *repo) TouchLastLogin(ctx context.Context, db *gorm.DB, operator *domain.Operator, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Operator{}).
		Where("id = ?", operator.ID).
		Updates(map[string]any{"last_login_at": at, "updated_at": at}).Error
}

func (r *repo) UpdatePasswordHash(ctx context.Context, db *gorm.DB, operator *domain.Operator, hash string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Operator{}).
		Where("id = ?", operator.ID).
		Updates(map[string]any{"password_hash": hash, "updated_at": at}).Error
}
