package observability

import (
	"strings"
	"time"

	"github.com/smallbiznis/frontdesk/internal/config"
)

const (
	defaultServiceName     = "frontdesk"
	defaultProtocol        = "grpc"
	defaultMetricsInterval = 30 * time.Second

	// Fraction of traces kept when OTEL_TRACES_SAMPLER_ARG is unset.
	productionSamplingRatio  = 0.1
	developmentSamplingRatio = 1.0
)

// Config is the resolved telemetry setup of one frontdesk process.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled     bool
	Endpoint        string
	TracesProtocol  string
	MetricsProtocol string
	SamplingRatio   float64
	MetricsInterval time.Duration
}

// LoadConfig fills every unset value with the default for the environment:
// development logs to the console at debug and samples every trace.
func LoadConfig(cfg config.Config) Config {
	raw := cfg.Observability
	dev := isDevEnv(cfg.Environment)

	out := Config{
		ServiceName:     firstNonEmpty(cfg.AppName, defaultServiceName),
		Environment:     strings.TrimSpace(cfg.Environment),
		Version:         strings.TrimSpace(cfg.AppVersion),
		LogLevel:        firstNonEmpty(raw.LogLevel, pick(dev, "debug", "info")),
		LogFormat:       firstNonEmpty(raw.LogFormat, pick(dev, "console", "json")),
		OtelEnabled:     raw.OtelEnabled,
		Endpoint:        strings.TrimSpace(raw.OtelEndpoint),
		TracesProtocol:  firstNonEmpty(raw.TracesProtocol, raw.OtelProtocol, defaultProtocol),
		MetricsProtocol: firstNonEmpty(raw.MetricsProtocol, raw.OtelProtocol, defaultProtocol),
		SamplingRatio:   raw.SamplingRatio,
		MetricsInterval: time.Duration(raw.MetricsInterval) * time.Millisecond,
	}
	if out.SamplingRatio < 0 {
		out.SamplingRatio = pick(dev, developmentSamplingRatio, productionSamplingRatio)
	}
	if out.MetricsInterval <= 0 {
		out.MetricsInterval = defaultMetricsInterval
	}
	return out
}

// Debug turns on gin debug output and error stack traces.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug") || isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func pick[T any](cond bool, yes, no T) T {
	if cond {
		return yes
	}
	return no
}
