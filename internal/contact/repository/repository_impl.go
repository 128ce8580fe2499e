package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/frontdesk/internal/contact/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, req *domain.ContactRequest) error {
	return db.WithContext(ctx).Create(req).Error
}

func (r *repo) InsertFormMetric(ctx context.Context, db *gorm.DB, metric *domain.FormInteractionMetric) error {
	return db.WithContext(ctx).Create(metric).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.ContactRequest, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id string) (*domain.ContactRequest, error) {
	return r.find(db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) find(db *gorm.DB, id string) (*domain.ContactRequest, error) {
	var req domain.ContactRequest
	err := db.Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repo) FindFormMetric(ctx context.Context, db *gorm.DB, formID string) (*domain.FormInteractionMetric, error) {
	var metric domain.FormInteractionMetric
	err := db.WithContext(ctx).Where("form_id = ?", formID).First(&metric).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &metric, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, req *domain.ContactRequest) error {
	return db.WithContext(ctx).
		Model(&domain.ContactRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":       req.Status,
			"priority":     req.Priority,
			"assigned_to":  req.AssignedTo,
			"notes":        req.Notes,
			"responded_at": req.RespondedAt,
			"updated_at":   req.UpdatedAt,
		}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.ContactRequest, error) {
	stmt := db.WithContext(ctx).Model(&domain.ContactRequest{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		stmt = stmt.Where("priority = ?", filter.Priority)
	}
	if filter.StartDate != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndDate.UTC())
	}

	requests := []domain.ContactRequest{}
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
