package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/frontdesk/internal/analytics/domain"
	"github.com/smallbiznis/frontdesk/internal/config"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Events eventdomain.Repository
	Config *config.AnalyticsConfigHolder `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	events eventdomain.Repository
	config *config.AnalyticsConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("analytics.service"),
		events: p.Events,
		config: p.Config,
	}
}

func (s *Service) Summarize(ctx context.Context, req domain.SummarizeRequest) (domain.Summary, error) {
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return domain.Summary{}, domain.ErrInvalidWindow
	}

	filter := eventdomain.Filter{
		Start:     req.StartDate,
		End:       req.EndDate,
		EventType: strings.TrimSpace(req.EventType),
	}

	agg := domain.NewAggregator(s.config.Get().TopPagesLimit)
	err := s.events.Each(ctx, s.db, filter, func(e *eventdomain.Event) error {
		agg.Add(e)
		return nil
	})
	if err != nil {
		s.log.Error("failed to scan events", zap.Error(err))
		return domain.Summary{}, err
	}

	summary := agg.Summary()
	summary.Window = domain.Window{StartDate: req.StartDate, EndDate: req.EndDate}
	return summary, nil
}
