package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewBuildsLogger(t *testing.T) {
	log, err := New(nil, Config{Level: "debug", Format: "console", ServiceName: "frontdesk"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("select * from events"))
	assert.Equal(t, "INSERT", operationFromSQL(`INSERT INTO "events" ("id") VALUES (?)`))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestGormLoggerLogModeCopies(t *testing.T) {
	base := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: time.Second})
	quiet := base.LogMode(gormlogger.Silent).(*GormLogger)
	assert.Equal(t, gormlogger.Silent, quiet.cfg.Level)
	assert.Equal(t, gormlogger.Warn, base.cfg.Level)
}

func TestParamsFilterDropsValues(t *testing.T) {
	l := NewGormLogger(DefaultGormLoggerConfig())
	sql, params := l.ParamsFilter(nil, "SELECT 1", "secret@example.com")
	assert.Equal(t, "SELECT 1", sql)
	assert.Nil(t, params)
}

func TestRedactMasksVisitorEmailAndDropsSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(Redact(core)).With(zap.String("authorization", "Bearer abc"))

	log.Info("contact request submitted",
		zap.String("request_id", "42"),
		zap.String("email", "jane@example.com"),
		zap.String("password", "hunter2"),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "42", fields["request_id"])
	assert.Equal(t, "j***@example.com", fields["email"])
	assert.Equal(t, "[redacted]", fields["password"])
	assert.Equal(t, "[redacted]", fields["authorization"])
}

func TestRedactLeavesCleanFieldsUntouched(t *testing.T) {
	fields := []zapcore.Field{zap.String("route", "/contact/submit"), zap.Int("status", 201)}
	assert.Equal(t, fields, scrub(fields))
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"jane@example.com":  "j***@example.com",
		"élodie@exemple.fr": "é***@exemple.fr",
		"@example.com":      "[redacted]",
		"not-an-email":      "[redacted]",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}

func TestBuildStampsServiceFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := build(core, Config{Environment: "test", Version: "1.0.0"})

	log.Debug("dropped")
	log.Info("kept")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "frontdesk", fields["service"])
	assert.Equal(t, "test", fields["env"])
	assert.Equal(t, "1.0.0", fields["version"])
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	level, err := parseLevel(" ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}
