package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/smallbiznis/frontdesk/internal/contact/domain"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	"github.com/smallbiznis/frontdesk/internal/observability/metrics"
	"github.com/smallbiznis/frontdesk/internal/validation"
	"github.com/smallbiznis/frontdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  config.Config
	Repo    domain.Repository
	Events  eventdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	strict  bool
	repo    domain.Repository
	events  eventdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("contact.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		strict:  p.Config.Contact.StrictValidation,
		repo:    p.Repo,
		events:  p.Events,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.SubmitRequest) (domain.ContactRequest, error) {
	in, err := s.normalize(req)
	if err != nil {
		return domain.ContactRequest{}, err
	}

	priority := domain.PriorityMedium
	if req.Urgent {
		priority = domain.PriorityHigh
	}

	now := s.clock.Now()
	contactReq := domain.ContactRequest{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Subject:   in.Subject,
		Message:   in.Message,
		Status:    domain.StatusNew,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
		Source:    domain.DefaultSource,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &contactReq); err != nil {
			return err
		}
		if !req.HasFormMetric() {
			return nil
		}
		return s.repo.InsertFormMetric(ctx, tx, &domain.FormInteractionMetric{
			ID:                    s.genID.Generate(),
			FormID:                contactReq.ID,
			SubmissionTime:        now,
			CompletionTimeSeconds: req.CompletionTimeSeconds,
			FieldInteractions:     jsonMap(req.FieldInteractions),
			ConversionData:        jsonMap(req.ConversionData),
			AbandonmentPoint:      in.AbandonmentPoint,
		})
	})
	if db.IsValueTooLongErr(err) {
		s.log.Warn("contact request rejected by column width", zap.Error(err))
		return domain.ContactRequest{}, domain.ErrFieldTooLong
	}
	if err != nil {
		s.log.Error("failed to create contact request", zap.Error(err))
		return domain.ContactRequest{}, err
	}

	s.metrics.RecordContactCreated(ctx, string(contactReq.Priority))
	s.emitSubmitted(ctx, req, contactReq)

	s.log.Info("contact request submitted",
		zap.String("request_id", contactReq.ID),
		zap.String("email", contactReq.Email),
		zap.String("priority", string(contactReq.Priority)),
	)
	return contactReq, nil
}

// emitSubmitted records the derived event. Losing it does not fail the submission.
func (s *Service) emitSubmitted(ctx context.Context, req domain.SubmitRequest, created domain.ContactRequest) {
	_, err := s.events.Track(ctx, eventdomain.TrackRequest{
		EventType: eventdomain.TypeContactFormSubmit,
		PageURL:   req.CurrentPage,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		AdditionalData: map[string]any{
			"form_id":  created.ID,
			"subject":  created.Subject,
			"priority": string(created.Priority),
		},
	})
	if err != nil {
		s.log.Warn("failed to record contact_form_submit event",
			zap.String("request_id", created.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) normalize(req domain.SubmitRequest) (domain.SubmitRequest, error) {
	out := domain.SubmitRequest{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Company:   strings.TrimSpace(req.Company),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),

		AbandonmentPoint: strings.TrimSpace(req.AbandonmentPoint),
	}

	switch {
	case out.FirstName == "":
		return out, domain.ErrFirstNameRequired
	case out.LastName == "":
		return out, domain.ErrLastNameRequired
	case out.Email == "":
		return out, domain.ErrEmailRequired
	case out.Subject == "":
		return out, domain.ErrSubjectRequired
	case out.Message == "":
		return out, domain.ErrMessageRequired
	}
	if !validation.ValidateEmail(out.Email) || !validation.FitsLength(out.Email, domain.MaxEmailLength) {
		return out, domain.ErrInvalidEmail
	}

	switch {
	case !validation.FitsLength(out.FirstName, domain.MaxNameLength):
		return out, domain.ErrInvalidFirstName
	case !validation.FitsLength(out.LastName, domain.MaxNameLength):
		return out, domain.ErrInvalidLastName
	case !validation.FitsLength(out.Phone, domain.MaxPhoneLength):
		return out, domain.ErrInvalidPhone
	case !validation.FitsLength(out.AbandonmentPoint, domain.MaxAbandonmentPointLength):
		return out, domain.ErrInvalidAbandonmentPoint
	}

	if !s.strict {
		// Strict mode truncates these instead.
		switch {
		case !validation.FitsLength(out.Subject, domain.MaxSubjectLength):
			return out, domain.ErrInvalidSubject
		case !validation.FitsLength(out.Company, domain.MaxCompanyLength):
			return out, domain.ErrInvalidCompany
		}
		return out, nil
	}

	switch {
	case !validation.ValidateName(out.FirstName):
		return out, domain.ErrInvalidFirstName
	case !validation.ValidateName(out.LastName):
		return out, domain.ErrInvalidLastName
	case !validation.ValidatePhone(out.Phone):
		return out, domain.ErrInvalidPhone
	case !validation.ValidateMessage(out.Message, validation.DefaultMessageMin, validation.DefaultMessageMax):
		return out, domain.ErrInvalidMessage
	}
	out.Subject = validation.SanitizeInput(out.Subject, domain.MaxSubjectLength)
	out.Company = validation.SanitizeInput(out.Company, domain.MaxCompanyLength)
	if out.Subject == "" {
		return out, domain.ErrSubjectRequired
	}
	return out, nil
}

func (s *Service) SetStatus(ctx context.Context, req domain.SetStatusRequest) (domain.ContactRequest, error) {
	rawStatus := strings.TrimSpace(req.Status)
	if rawStatus == "" {
		return domain.ContactRequest{}, domain.ErrStatusRequired
	}
	next, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return domain.ContactRequest{}, err
	}
	id, err := parseID(req.ID)
	if err != nil {
		return domain.ContactRequest{}, err
	}

	var (
		updated domain.ContactRequest
		prev    domain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		prev = current.Status
		now := s.clock.Now()
		switch next {
		case domain.StatusResolved:
			if prev != domain.StatusResolved {
				current.RespondedAt = &now
			}
		case domain.StatusNew, domain.StatusInProgress, domain.StatusClosed:
		default:
			return domain.ErrInvalidStatus
		}

		current.Status = next
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			current.Notes = notes
		}
		current.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}
		updated = *current
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.log.Error("failed to update contact status", zap.String("request_id", id), zap.Error(err))
		}
		return domain.ContactRequest{}, err
	}

	s.metrics.RecordStatusTransition(ctx, string(prev), string(next))
	s.log.Info("contact request status updated",
		zap.String("request_id", id),
		zap.String("from_status", string(prev)),
		zap.String("to_status", string(next)),
	)
	return updated, nil
}

func (s *Service) Annotate(ctx context.Context, req domain.AnnotateRequest) (domain.ContactRequest, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.ContactRequest{}, err
	}

	var priority domain.Priority
	if req.Priority != nil {
		priority, err = domain.ParsePriority(strings.TrimSpace(*req.Priority))
		if err != nil {
			return domain.ContactRequest{}, err
		}
	}
	if req.AssignedTo != nil && !validation.FitsLength(strings.TrimSpace(*req.AssignedTo), domain.MaxAssigneeLength) {
		return domain.ContactRequest{}, domain.ErrInvalidAssignedTo
	}

	var updated domain.ContactRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		if req.AssignedTo != nil {
			current.AssignedTo = strings.TrimSpace(*req.AssignedTo)
		}
		if priority != "" {
			current.Priority = priority
		}
		if req.Notes != nil {
			current.Notes = strings.TrimSpace(*req.Notes)
		}
		current.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}
		updated = *current
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.log.Error("failed to annotate contact request", zap.String("request_id", id), zap.Error(err))
		}
		return domain.ContactRequest{}, err
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.ContactRequestDetail, error) {
	id, err := parseID(id)
	if err != nil {
		return domain.ContactRequestDetail{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ContactRequestDetail{}, err
	}
	if item == nil {
		return domain.ContactRequestDetail{}, domain.ErrNotFound
	}

	metric, err := s.repo.FindFormMetric(ctx, s.db, id)
	if err != nil {
		return domain.ContactRequestDetail{}, err
	}
	return domain.ContactRequestDetail{ContactRequest: *item, FormMetric: metric}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{StartDate: req.StartDate, EndDate: req.EndDate}

	if value := strings.TrimSpace(req.Status); value != "" {
		status, err := domain.ParseStatus(value)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Status = status
	}
	if value := strings.TrimSpace(req.Priority); value != "" {
		priority, err := domain.ParsePriority(value)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Priority = priority
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return domain.ListResponse{}, domain.ErrInvalidWindow
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}
	return domain.ListResponse{Requests: items, Total: len(items)}, nil
}

func parseID(value string) (string, error) {
	id := strings.TrimSpace(value)
	if id == "" {
		return "", domain.ErrInvalidID
	}
	return id, nil
}

func jsonMap(m map[string]any) datatypes.JSONMap {
	if len(m) == 0 {
		return nil
	}
	return datatypes.JSONMap(m)
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidStatus)
}
