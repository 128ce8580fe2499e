package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

const redacted = "[redacted]"

// Keys whose values never reach the log output.
var secretKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"token":         {},
	"access_token":  {},
	"authorization": {},
}

// Keys holding visitor email addresses. Only the domain is kept.
var emailKeys = map[string]struct{}{
	"email":         {},
	"contact_email": {},
}

// Redact wraps core so secrets are dropped and visitor emails are masked on
// both With and Write.
func Redact(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

type redactingCore struct {
	zapcore.Core
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(scrub(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, scrub(fields))
}

// scrub copies fields only when one of them needs rewriting.
func scrub(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		masked, ok := mask(f)
		if !ok {
			if out != nil {
				out = append(out, f)
			}
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, i, len(fields))
			copy(out, fields[:i])
		}
		out = append(out, masked)
	}
	if out == nil {
		return fields
	}
	return out
}

func mask(f zapcore.Field) (zapcore.Field, bool) {
	key := strings.ToLower(f.Key)
	if _, ok := secretKeys[key]; ok {
		return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: redacted}, true
	}
	if _, ok := emailKeys[key]; ok && f.Type == zapcore.StringType {
		return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: MaskEmail(f.String)}, true
	}
	return f, false
}

// MaskEmail keeps the first rune of the local part and the domain:
// "jane@example.com" becomes "j***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return redacted
	}
	first := []rune(email[:at])[0]
	return string(first) + "***" + email[at:]
}
