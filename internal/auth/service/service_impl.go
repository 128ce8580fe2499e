package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/auth/domain"
	"github.com/smallbiznis/frontdesk/internal/auth/password"
	"github.com/smallbiznis/frontdesk/internal/auth/token"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	"github.com/smallbiznis/frontdesk/internal/observability/logger"
	"github.com/smallbiznis/frontdesk/internal/observability/metrics"
	"github.com/smallbiznis/frontdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FailureLimiter is the part of the rate limiter used to throttle logins.
type FailureLimiter interface {
	IsLimited(ctx context.Context, ipAddress, actionType string, limit, windowMinutes int) (bool, error)
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Tokens    *token.Issuer
	Hasher    *password.Hasher `optional:"true"`
	Events    eventdomain.Service
	Limiter   FailureLimiter
	Analytics *config.AnalyticsConfigHolder `optional:"true"`
	Metrics   *metrics.Metrics              `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	tokens    *token.Issuer
	hasher    *password.Hasher
	events    eventdomain.Service
	limiter   FailureLimiter
	analytics *config.AnalyticsConfigHolder
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("auth.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		tokens:    p.Tokens,
		hasher:    p.Hasher,
		events:    p.Events,
		limiter:   p.Limiter,
		analytics: p.Analytics,
		metrics:   p.Metrics,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return domain.LoginResponse{}, domain.ErrCredentialsRequired
	}

	window := s.analytics.Get().RateLimits.LoginFailure
	limited, err := s.limiter.IsLimited(ctx, req.IPAddress, eventdomain.TypeLoginFailed, window.Limit, window.WindowMinutes)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if limited {
		s.metrics.RecordLoginAttempt(ctx, "throttled")
		logger.Security(ctx).Warn("login throttled",
			zap.String("username", username),
			zap.String("user_agent", req.UserAgent),
		)
		return domain.LoginResponse{}, domain.ErrTooManyAttempts
	}

	operator, err := s.repo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if operator == nil || !operator.IsActive {
		s.recordFailure(ctx, req, username)
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}
	matched, needsRehash := s.hasher.Verify(req.Password, operator.PasswordHash)
	if !matched {
		s.recordFailure(ctx, req, username)
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}
	if needsRehash {
		s.upgradeHash(ctx, operator, req.Password)
	}

	accessToken, expiresAt, err := s.tokens.Issue(operator.Username)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	if err := s.repo.TouchLastLogin(ctx, s.db, operator, s.clock.Now()); err != nil {
		s.log.Warn("failed to record last login", zap.Error(err))
	}
	s.metrics.RecordLoginAttempt(ctx, "success")

	return domain.LoginResponse{
		AccessToken: accessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   expiresAt,
		User:        domain.OperatorView{Username: operator.Username},
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, req domain.LoginRequest, username string) {
	s.metrics.RecordLoginAttempt(ctx, "failure")
	logger.Security(ctx).Warn("login failed",
		zap.String("username", username),
		zap.String("user_agent", req.UserAgent),
	)

	_, err := s.events.Track(ctx, eventdomain.TrackRequest{
		EventType: eventdomain.TypeLoginFailed,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})
	if err != nil {
		s.log.Warn("failed to record login failure", zap.Error(err))
	}
}

// upgradeHash stores a hash with the current costs. Failure keeps the old hash.
func (s *Service) upgradeHash(ctx context.Context, operator *domain.Operator, plain string) {
	hash, err := s.hasher.Hash(plain)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, s.db, operator, hash, s.clock.Now())
	}
	if err != nil {
		s.log.Warn("failed to upgrade operator password hash",
			zap.String("username", operator.Username),
			zap.Error(err),
		)
		return
	}
	s.log.Info("operator password hash upgraded", zap.String("username", operator.Username))
}

// Authenticate accepts a token only while its operator still exists and is active.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return "", err
	}

	operator, err := s.repo.FindByUsername(ctx, s.db, claims.Subject)
	if err != nil {
		return "", err
	}
	if operator == nil || !operator.IsActive {
		return "", domain.ErrInvalidToken
	}
	return operator.Username, nil
}

// EnsureDefaultOperator creates the bootstrap account when it is missing.
// An existing account is left untouched.
func (s *Service) EnsureDefaultOperator(ctx context.Context, username, plain, email string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("default operator username is required")
	}

	existing, err := s.repo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if plain == "" {
		s.log.Warn("ADMIN_PASSWORD not set, default operator not created", zap.String("username", username))
		return nil
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.repo.Insert(ctx, s.db, &domain.Operator{
		ID:           s.genID.Generate(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if db.IsDuplicateKeyErr(err) {
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info("default operator created", zap.String("username", username))
	return nil
}
