package auth

import (
	"github.com/smallbiznis/frontdesk/internal/auth/password"
	"github.com/smallbiznis/frontdesk/internal/auth/repository"
	"github.com/smallbiznis/frontdesk/internal/auth/service"
	"github.com/smallbiznis/frontdesk/internal/auth/token"
	"github.com/smallbiznis/frontdesk/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(token.Provide),
	fx.Provide(password.Provide),
	fx.Provide(func(l *ratelimit.Limiter) service.FailureLimiter { return l }),
	fx.Provide(service.New),
)
