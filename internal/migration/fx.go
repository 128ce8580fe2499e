package migration

import (
	"context"

	authdomain "github.com/smallbiznis/frontdesk/internal/auth/domain"
	"github.com/smallbiznis/frontdesk/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, auth authdomain.Service) error {
		if err := Apply(conn); err != nil {
			return err
		}
		return auth.EnsureDefaultOperator(context.Background(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.AdminEmail)
	}),
)
