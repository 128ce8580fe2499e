package domain

import (
	"context"
	"errors"
	"time"
)

// Column widths of contact_requests and form_interaction_metrics, in runes.
const (
	MaxNameLength             = 100
	MaxEmailLength            = 120
	MaxPhoneLength            = 50
	MaxSubjectLength          = 100
	MaxCompanyLength          = 200
	MaxAssigneeLength         = 100
	MaxAbandonmentPointLength = 100
)

type SubmitRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	Subject   string
	Message   string
	Urgent    bool

	CurrentPage string
	SessionID   string
	UserID      string

	CompletionTimeSeconds *int
	FieldInteractions     map[string]any
	ConversionData        map[string]any
	AbandonmentPoint      string

	IPAddress string
	UserAgent string
}

// HasFormMetric reports whether any interaction telemetry was submitted.
func (r SubmitRequest) HasFormMetric() bool {
	return r.CompletionTimeSeconds != nil ||
		len(r.FieldInteractions) > 0 ||
		len(r.ConversionData) > 0 ||
		r.AbandonmentPoint != ""
}

type SetStatusRequest struct {
	ID     string
	Status string
	Notes  string
}

type AnnotateRequest struct {
	ID         string
	AssignedTo *string
	Priority   *string
	Notes      *string
}

type ListRequest struct {
	Status    string
	Priority  string
	StartDate *time.Time
	EndDate   *time.Time
}

type ListResponse struct {
	Requests []ContactRequest `json:"requests"`
	Total    int              `json:"total"`
}

type Service interface {
	Create(ctx context.Context, req SubmitRequest) (ContactRequest, error)
	SetStatus(ctx context.Context, req SetStatusRequest) (ContactRequest, error)
	Annotate(ctx context.Context, req AnnotateRequest) (ContactRequest, error)
	Get(ctx context.Context, id string) (ContactRequestDetail, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrFirstNameRequired       = errors.New("first_name_required")
	ErrLastNameRequired        = errors.New("last_name_required")
	ErrEmailRequired           = errors.New("email_required")
	ErrSubjectRequired         = errors.New("subject_required")
	ErrMessageRequired         = errors.New("message_required")
	ErrStatusRequired          = errors.New("status_required")
	ErrInvalidEmail            = errors.New("invalid_email")
	ErrInvalidFirstName        = errors.New("invalid_first_name")
	ErrInvalidLastName         = errors.New("invalid_last_name")
	ErrInvalidPhone            = errors.New("invalid_phone")
	ErrInvalidSubject          = errors.New("invalid_subject")
	ErrInvalidCompany          = errors.New("invalid_company")
	ErrInvalidMessage          = errors.New("invalid_message")
	ErrInvalidAssignedTo       = errors.New("invalid_assigned_to")
	ErrInvalidAbandonmentPoint = errors.New("invalid_abandonment_point")
	ErrFieldTooLong            = errors.New("field_too_long")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidPriority         = errors.New("invalid_priority")
	ErrInvalidWindow           = errors.New("invalid_window")
	ErrInvalidID               = errors.New("invalid_id")
	ErrNotFound                = errors.New("not_found")
)
