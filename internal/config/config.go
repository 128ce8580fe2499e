package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Auth          AuthConfig
	Contact       ContactConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	JWTExpirationHours int
	AdminUsername      string
	AdminPassword      string
	AdminEmail         string

	// Argon2id costs for operator passwords. Zero keeps the package defaults.
	ArgonMemoryKiB   int
	ArgonIterations  int
	ArgonParallelism int
}

type ContactConfig struct {
	StrictValidation bool
}

// ObservabilityConfig carries the raw telemetry settings. Empty strings and
// negative numbers mean "use the environment's default".
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelProtocol    string
	TracesProtocol  string
	MetricsProtocol string
	SamplingRatio   float64
	MetricsInterval int // milliseconds
}

// RateLimitConfig configures the optional redis-backed burst guard placed in
// front of the public endpoints. Window-based limits live in AnalyticsConfig.
type RateLimitConfig struct {
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tokens per second and bucket size. Public* applies to every public
	// route without its own pair.
	PublicRate  float64
	PublicBurst int
	LoginRate   float64
	LoginBurst  int
	SubmitRate  float64
	SubmitBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	adminUsername := strings.TrimSpace(getenv("ADMIN_USERNAME", "admin"))

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "frontdesk"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "frontdesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:      getenv("DATABASE_SQLITE_PATH", "frontdesk.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		Auth: AuthConfig{
			JWTSecret:          strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			JWTIssuer:          strings.TrimSpace(getenv("AUTH_JWT_ISSUER", "frontdesk")),
			JWTExpirationHours: getenvInt("AUTH_JWT_EXPIRATION_HOURS", 24),
			AdminUsername:      adminUsername,
			AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
			AdminEmail:         strings.TrimSpace(getenv("ADMIN_EMAIL", adminUsername+"@example.com")),
			ArgonMemoryKiB:     getenvInt("AUTH_ARGON_MEMORY_KIB", 0),
			ArgonIterations:    getenvInt("AUTH_ARGON_ITERATIONS", 0),
			ArgonParallelism:   getenvInt("AUTH_ARGON_PARALLELISM", 0),
		},
		Contact: ContactConfig{
			StrictValidation: getenvBool("CONTACT_STRICT_VALIDATION", false),
		},
		RateLimit: RateLimitConfig{
			RedisEnabled:  getenvBool("RATE_LIMIT_REDIS_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379")),
			RedisPassword: os.Getenv("RATE_LIMIT_REDIS_PASSWORD"),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),

			PublicRate:  getenvFloat("RATE_LIMIT_PUBLIC_RATE", 5),
			PublicBurst: getenvInt("RATE_LIMIT_PUBLIC_BURST", 20),
			LoginRate:   getenvFloat("RATE_LIMIT_LOGIN_RATE", 0.2),
			LoginBurst:  getenvInt("RATE_LIMIT_LOGIN_BURST", 5),
			SubmitRate:  getenvFloat("RATE_LIMIT_SUBMIT_RATE", 0.5),
			SubmitBurst: getenvInt("RATE_LIMIT_SUBMIT_BURST", 5),
		},
		Observability: ObservabilityConfig{
			LogLevel:        strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
			LogFormat:       strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
			OtelEnabled:     getenvBool("OTEL_ENABLED", false),
			OtelEndpoint:    strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
			OtelProtocol:    strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"))),
			TracesProtocol:  strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"))),
			MetricsProtocol: strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_METRICS_PROTOCOL"))),
			SamplingRatio:   getenvFloat("OTEL_TRACES_SAMPLER_ARG", -1),
			MetricsInterval: getenvInt("OTEL_METRIC_EXPORT_INTERVAL", -1),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewAnalyticsConfigHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
