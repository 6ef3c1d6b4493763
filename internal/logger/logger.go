package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface used across the service. Each call carries a short
// message, an event name and a bag of fields.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
	Sync() error
}

// Options configure the zap-backed logger.
type Options struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a zap-backed Logger.
func New(opts Options) (Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	if z == nil {
		return NopLogger{}
	}
	return &zapLogger{z: z}
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return lvl, nil
}

func (l *zapLogger) fields(event string, obj map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(obj)+1)
	if event != "" {
		out = append(out, zap.String("event", event))
	}
	for k, v := range obj {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (l *zapLogger) DebugObj(msg, event string, obj map[string]any) {
	l.z.Debug(msg, l.fields(event, obj)...)
}

func (l *zapLogger) InfoObj(msg, event string, obj map[string]any) {
	l.z.Info(msg, l.fields(event, obj)...)
}

func (l *zapLogger) WarnObj(msg, event string, obj map[string]any) {
	l.z.Warn(msg, l.fields(event, obj)...)
}

func (l *zapLogger) ErrorObj(msg, event string, obj map[string]any) {
	l.z.Error(msg, l.fields(event, obj)...)
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any)  {}
func (NopLogger) WarnObj(string, string, map[string]any)  {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}
func (NopLogger) Sync() error                             { return nil }

// Ensure returns log, or a NopLogger when log is nil.
func Ensure(log Logger) Logger {
	if log == nil {
		return NopLogger{}
	}
	return log
}
