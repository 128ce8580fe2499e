package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/frontdesk/internal/auth/domain"
	eventdomain "github.com/smallbiznis/frontdesk/internal/event/domain"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	"github.com/smallbiznis/frontdesk/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextOperatorKey = "operator"
	actorTypeOperator  = "operator"

	rateLimitReasonBurst  = "burst"
	rateLimitReasonWindow = "window"
)

func clientIP(c *gin.Context) string {
	return eventdomain.ClientIP(c.Request.Header, c.Request.RemoteAddr)
}

// OperatorRequired admits requests carrying a valid bearer token and records
// the operator on the request context.
func (s *Server) OperatorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, authdomain.ErrMissingToken)
			return
		}

		operator, err := s.authSvc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			logger.Security(c.Request.Context()).Warn("operator token rejected",
				zap.String("route", normalizeRateLimitEndpoint(c)),
				zap.String("reason", err.Error()),
			)
			AbortWithError(c, err)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), actorTypeOperator, operator)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextOperatorKey, operator)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// PublicBurstLimit applies the route's shared token bucket to unauthenticated
// endpoints. It is a no-op when redis is not configured.
func (s *Server) PublicBurstLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.burstGuard.Enabled() {
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()
		decision := s.burstGuard.Allow(ctx, endpoint, clientIP(c))
		if decision.Allowed {
			c.Next()
			return
		}

		logger.Security(ctx).Warn("public burst limit exceeded",
			zap.String("endpoint", endpoint),
		)
		s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, rateLimitReasonBurst)

		seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		AbortWithError(c, ErrRateLimited)
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
