package logging

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Spok95/eduhere-client/internal/ctxutil"
)

// Log is the process logger. Level can be changed at runtime.
type Log struct {
	Base   *zap.Logger
	Level  zap.AtomicLevel
	Closer func()
}

// Init builds the logger for one binary: JSON in prod, console otherwise,
// always on stderr so command output on stdout stays clean.
func Init(level, env, component string) (*Log, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg := zap.NewDevelopmentConfig()
	if strings.EqualFold(env, "prod") {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	if component != "" {
		base = base.Named(component)
	}
	return &Log{Base: base, Level: lvl, Closer: func() { _ = base.Sync() }}, nil
}

// Request returns the request id and operation name carried by ctx.
func Request(ctx context.Context) []zap.Field {
	var f []zap.Field
	if id, ok := ctxutil.RequestID(ctx); ok {
		f = append(f, zap.String("request_id", id))
	}
	if op, ok := ctxutil.Op(ctx); ok {
		f = append(f, zap.String("op", op))
	}
	return f
}

// Token logs a credential by its first characters only.
func Token(key, tok string) zap.Field {
	if len(tok) > 10 {
		tok = tok[:10] + "..."
	}
	return zap.String(key, tok)
}
