package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/frontdesk/internal/analytics"
	analyticsdomain "github.com/smallbiznis/frontdesk/internal/analytics/domain"
	"github.com/smallbiznis/frontdesk/internal/auth"
	authdomain "github.com/smallbiznis/frontdesk/internal/auth/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/smallbiznis/frontdesk/internal/contact"
	contactdomain "github.com/smallbiznis/frontdesk/internal/contact/domain"
	"github.com/smallbiznis/frontdesk/internal/event"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	"github.com/smallbiznis/frontdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/frontdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/frontdesk/internal/observability/tracing"
	"github.com/smallbiznis/frontdesk/internal/ratelimit"
	"github.com/smallbiznis/frontdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	event.Module,
	ratelimit.Module,
	analytics.Module,
	contact.Module,
	auth.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, conn *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
		ClientIP:        clientIP,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", healthHandler(conn))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func healthHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx, conn); err != nil {
			obsmiddleware.FromContext(ctx).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// submissionLimiter reports whether an ip has exhausted its window for an action.
type submissionLimiter interface {
	IsLimited(ctx context.Context, ipAddress, actionType string, limit, windowMinutes int) (bool, error)
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	clock        clock.Clock
	eventSvc     eventdomain.Service
	analyticsSvc analyticsdomain.Service
	contactSvc   contactdomain.Service
	authSvc      authdomain.Service
	limiter      submissionLimiter
	burstGuard   *ratelimit.PublicBurstGuard
	analyticsCfg *config.AnalyticsConfigHolder
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Clock        clock.Clock
	EventSvc     eventdomain.Service
	AnalyticsSvc analyticsdomain.Service
	ContactSvc   contactdomain.Service
	AuthSvc      authdomain.Service
	Limiter      *ratelimit.Limiter
	BurstGuard   *ratelimit.PublicBurstGuard   `optional:"true"`
	AnalyticsCfg *config.AnalyticsConfigHolder `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics           `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		clock:        p.Clock,
		eventSvc:     p.EventSvc,
		analyticsSvc: p.AnalyticsSvc,
		contactSvc:   p.ContactSvc,
		authSvc:      p.AuthSvc,
		limiter:      p.Limiter,
		burstGuard:   p.BurstGuard,
		analyticsCfg: p.AnalyticsCfg,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerMetricsRoutes()
	svc.registerContactRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")
	auth.POST("/login", s.PublicBurstLimit(), s.Login)
}

func (s *Server) registerMetricsRoutes() {
	metrics := s.engine.Group("/metrics")
	metrics.POST("/track", s.PublicBurstLimit(), s.TrackEvent)
	metrics.GET("/analytics", s.OperatorRequired(), s.Analytics)
}

func (s *Server) registerContactRoutes() {
	contact := s.engine.Group("/contact")
	contact.POST("/submit", s.PublicBurstLimit(), s.SubmitContact)

	requests := contact.Group("/requests", s.OperatorRequired())
	requests.GET("", s.ListContactRequests)
	requests.GET("/:id", s.GetContactRequest)
	requests.PUT("/:id/status", s.UpdateContactStatus)
	requests.PATCH("/:id", s.AnnotateContactRequest)
}

func (s *Server) analyticsConfig() config.AnalyticsConfig {
	return s.analyticsCfg.Get()
}
