package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/stretchr/testify/assert"
)

func unset() config.ObservabilityConfig {
	return config.ObservabilityConfig{SamplingRatio: -1, MetricsInterval: -1}
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "development", AppVersion: "1.2.3", Observability: unset()})

	assert.Equal(t, "frontdesk", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 1.0, cfg.SamplingRatio)
	assert.Equal(t, "grpc", cfg.TracesProtocol)
	assert.Equal(t, "grpc", cfg.MetricsProtocol)
	assert.Equal(t, 30*time.Second, cfg.MetricsInterval)
	assert.True(t, cfg.Debug())
}

func TestLoadConfigProductionDefaults(t *testing.T) {
	cfg := LoadConfig(config.Config{AppName: "frontdesk-eu", Environment: "production", Observability: unset()})

	assert.Equal(t, "frontdesk-eu", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 0.1, cfg.SamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigExplicitValuesWin(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "production", Observability: config.ObservabilityConfig{
		LogLevel:        "debug",
		LogFormat:       "console",
		OtelEnabled:     true,
		OtelEndpoint:    " collector:4318 ",
		OtelProtocol:    "http",
		MetricsProtocol: "grpc",
		SamplingRatio:   0,
		MetricsInterval: 5000,
	}})

	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
	assert.Equal(t, "http", cfg.TracesProtocol)
	assert.Equal(t, "grpc", cfg.MetricsProtocol)
	assert.Zero(t, cfg.SamplingRatio, "an explicit zero disables sampling")
	assert.Equal(t, 5*time.Second, cfg.MetricsInterval)
	assert.True(t, cfg.Debug())
}

func TestSignalsCarryResolvedSetup(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "staging", Observability: config.ObservabilityConfig{
		OtelEnabled:     true,
		OtelEndpoint:    "collector:4317",
		TracesProtocol:  "http",
		SamplingRatio:   0.5,
		MetricsInterval: 2000,
	}})
	out := Signals(cfg)

	assert.Equal(t, "json", out.Logger.Format)
	assert.False(t, out.Logger.IncludeStackOnError)
	assert.Equal(t, "http", out.Tracing.ExporterProtocol)
	assert.Equal(t, 0.5, out.Tracing.SamplingRatio)
	assert.Equal(t, "grpc", out.Metrics.ExporterProtocol)
	assert.Equal(t, 2*time.Second, out.Metrics.ExportInterval)
	assert.Equal(t, "collector:4317", out.Metrics.ExporterEndpoint)
}
