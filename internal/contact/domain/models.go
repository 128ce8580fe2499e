package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// ParseStatus accepts only the four triage states.
func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusNew, StatusInProgress, StatusResolved, StatusClosed:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ParsePriority(value string) (Priority, error) {
	switch p := Priority(value); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

const DefaultSource = "website"

type ContactRequest struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100;not null" json:"last_name"`
	Email       string     `gorm:"size:120;not null" json:"email"`
	Phone       string     `gorm:"size:50" json:"phone"`
	Company     string     `gorm:"size:200" json:"company"`
	Subject     string     `gorm:"size:100;not null" json:"subject"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Status      Status     `gorm:"size:20;not null;default:'new';index" json:"status"`
	Priority    Priority   `gorm:"size:20;not null;default:'medium';index" json:"priority"`
	AssignedTo  string     `gorm:"size:100" json:"assigned_to"`
	CreatedAt   time.Time  `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
	RespondedAt *time.Time `json:"responded_at"`
	Notes       string     `gorm:"type:text" json:"notes"`
	Source      string     `gorm:"size:50;not null;default:'website'" json:"source"`
}

func (ContactRequest) TableName() string { return "contact_requests" }

// FormInteractionMetric is written at most once, together with its request.
type FormInteractionMetric struct {
	ID                    snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FormID                string            `gorm:"size:36;not null;uniqueIndex" json:"form_id"`
	SubmissionTime        time.Time         `gorm:"not null" json:"submission_time"`
	CompletionTimeSeconds *int              `json:"completion_time_seconds"`
	FieldInteractions     datatypes.JSONMap `json:"field_interactions"`
	ConversionData        datatypes.JSONMap `gorm:"column:conversion_rate_data" json:"conversion_rate_data"`
	AbandonmentPoint      string            `gorm:"size:100" json:"abandonment_point"`
}

func (FormInteractionMetric) TableName() string { return "form_interaction_metrics" }

type ContactRequestDetail struct {
	ContactRequest
	FormMetric *FormInteractionMetric `json:"form_metric"`
}
