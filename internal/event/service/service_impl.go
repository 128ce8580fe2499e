package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/event/domain"
	"github.com/smallbiznis/frontdesk/internal/observability/metrics"
	"github.com/smallbiznis/frontdesk/internal/useragent"
	"github.com/smallbiznis/frontdesk/internal/validation"
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
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("event.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Track(ctx context.Context, req domain.TrackRequest) (domain.Event, error) {
	eventType := validation.SanitizeInput(req.EventType, domain.MaxEventTypeLength)
	if eventType == "" {
		return domain.Event{}, domain.ErrInvalidEventType
	}

	ua := useragent.Classify(req.UserAgent)
	deviceType := strings.TrimSpace(req.DeviceType)
	if deviceType == "" {
		deviceType = ua.DeviceType
	}

	var additional datatypes.JSONMap
	if len(req.AdditionalData) > 0 {
		additional = datatypes.JSONMap(req.AdditionalData)
	}

	event := domain.Event{
		ID:             s.genID.Generate(),
		EventType:      eventType,
		PageURL:        strings.TrimSpace(req.PageURL),
		UserID:         strings.TrimSpace(req.UserID),
		SessionID:      strings.TrimSpace(req.SessionID),
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		Referrer:       strings.TrimSpace(req.Referrer),
		Country:        validation.SanitizeInput(req.Country, domain.MaxCountryLength),
		DeviceType:     deviceType,
		Browser:        ua.Browser,
		OS:             ua.OS,
		Timestamp:      s.clock.Now(),
		AdditionalData: additional,
	}

	if err := s.repo.Insert(ctx, s.db, &event); err != nil {
		s.log.Error("failed to persist event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return domain.Event{}, err
	}

	s.metrics.RecordEventTracked(ctx, eventType)
	return event, nil
}
