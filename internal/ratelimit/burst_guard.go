package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	RouteLogin  = "/auth/login"
	RouteSubmit = "/contact/submit"
	RouteTrack  = "/metrics/track"

	burstKeyPrefix = "frontdesk:burst:"
)

// burstKey hash-tags the client so all of a visitor's buckets share a
// cluster slot.
func burstKey(route, clientIP string) string {
	return burstKeyPrefix + route + ":{" + clientIP + "}"
}

// PublicBurstGuard throttles anonymous routes per client IP across replicas.
// A nil guard allows everything.
type PublicBurstGuard struct {
	bucket   *tokenBucket
	log      *zap.Logger
	fallback BurstPolicy
	routes   map[string]BurstPolicy
}

// PoliciesFromConfig maps each public route to its bucket. Routes without a
// configured pair use the public default.
func PoliciesFromConfig(cfg config.RateLimitConfig) (BurstPolicy, map[string]BurstPolicy, error) {
	fallback := BurstPolicy{Rate: cfg.PublicRate, Burst: cfg.PublicBurst}
	if err := fallback.validate(); err != nil {
		return BurstPolicy{}, nil, err
	}

	routes := map[string]BurstPolicy{}
	for route, p := range map[string]BurstPolicy{
		RouteLogin:  {Rate: cfg.LoginRate, Burst: cfg.LoginBurst},
		RouteSubmit: {Rate: cfg.SubmitRate, Burst: cfg.SubmitBurst},
	} {
		if p.Rate == 0 && p.Burst == 0 {
			continue
		}
		if err := p.validate(); err != nil {
			return BurstPolicy{}, nil, err
		}
		routes[route] = p
	}
	return fallback, routes, nil
}

func NewPublicBurstGuard(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, log *zap.Logger) (*PublicBurstGuard, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.RedisEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	fallback, routes, err := PoliciesFromConfig(limitCfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     strings.TrimSpace(limitCfg.RedisPassword),
		DB:           limitCfg.RedisDB,
		DialTimeout:  time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}

	return newPublicBurstGuard(client, clk, log, fallback, routes), nil
}

func newPublicBurstGuard(client redis.UniversalClient, clk clock.Clock, log *zap.Logger, fallback BurstPolicy, routes map[string]BurstPolicy) *PublicBurstGuard {
	if log == nil {
		log = zap.NewNop()
	}
	if routes == nil {
		routes = map[string]BurstPolicy{}
	}
	return &PublicBurstGuard{
		bucket:   newTokenBucket(client, clk),
		log:      log.Named("ratelimit.burst"),
		fallback: fallback,
		routes:   routes,
	}
}

func (g *PublicBurstGuard) Enabled() bool {
	return g != nil && g.bucket != nil && g.bucket.client != nil
}

// PolicyFor returns the bucket applied to route.
func (g *PublicBurstGuard) PolicyFor(route string) BurstPolicy {
	if p, ok := g.routes[route]; ok {
		return p
	}
	return g.fallback
}

// Allow fails open: a redis error is logged and the request proceeds.
func (g *PublicBurstGuard) Allow(ctx context.Context, route, clientIP string) Decision {
	if !g.Enabled() {
		return Decision{Allowed: true}
	}

	route = strings.TrimSpace(route)
	policy := g.PolicyFor(route)
	decision, err := g.bucket.take(ctx, burstKey(route, strings.TrimSpace(clientIP)), policy)
	if err != nil {
		g.log.Warn("burst guard unavailable, allowing request",
			zap.String("route", route),
			zap.Error(err),
		)
		return Decision{Allowed: true, Remaining: policy.Burst}
	}
	return decision
}
