package db

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

const poolStatsRefreshSeconds = 15

// usePlugins attaches query spans and connection pool gauges. Pool gauges
// land on the default prometheus registry served at /metrics.
func usePlugins(conn *gorm.DB, cfg Config) error {
	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithoutQueryVariables())); err != nil {
		return fmt.Errorf("register tracing plugin: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Type
	}
	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          name,
		RefreshInterval: poolStatsRefreshSeconds,
		StartServer:     false,
	})); err != nil {
		return fmt.Errorf("register pool metrics plugin: %w", err)
	}
	return nil
}
