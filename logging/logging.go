package logging

import (
	"strings"

	talent "github.com/goliatone/go-talent-session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ talent.Logger = (*Adapter)(nil)

// NewZap creates a structured zap.Logger writing JSON to stderr. Unknown
// levels fall back to info.
func NewZap(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
		lvl = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			LevelKey:   "level",
			TimeKey:    "ts",
			NameKey:    "logger",
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime: zapcore.ISO8601TimeEncoder,
		},
		// stdout belongs to command output
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapCfg.Build()
}

// Adapter exposes a zap logger through the format style talent.Logger.
type Adapter struct {
	sugar *zap.SugaredLogger
}

// NewAdapter wraps logger. A nil logger discards everything.
func NewAdapter(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{sugar: logger.Sugar()}
}

// New builds a zap logger at level and wraps it.
func New(level string) (*Adapter, error) {
	logger, err := NewZap(level)
	if err != nil {
		return nil, err
	}
	return NewAdapter(logger), nil
}

// Named returns a child adapter scoped to name
func (a *Adapter) Named(name string) *Adapter {
	return &Adapter{sugar: a.sugar.Named(name)}
}

func (a *Adapter) Debug(format string, args ...any) { a.sugar.Debugf(format, args...) }
func (a *Adapter) Info(format string, args ...any)  { a.sugar.Infof(format, args...) }
func (a *Adapter) Warn(format string, args ...any)  { a.sugar.Warnf(format, args...) }
func (a *Adapter) Error(format string, args ...any) { a.sugar.Errorf(format, args...) }

// Zap returns the underlying structured logger.
func (a *Adapter) Zap() *zap.Logger {
	return a.sugar.Desugar()
}

// Sync flushes buffered entries
func (a *Adapter) Sync() error {
	return a.sugar.Sync()
}
