// Package log provides the zap logger construction helpers shared by go-iusync components
// and the contextual request identifiers attached to log lines.
package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ConsoleEncoder emits human readable log lines.
	ConsoleEncoder = "console"
	// JSONEncoder emits one JSON object per line.
	JSONEncoder = "json"
)

// where logs go by default.
var logWriter io.Writer = os.Stdout

// Config for the application logger.
type Config struct {
	Encoder string `mapstructure:"log-encoder"`
	Level   string `mapstructure:"log-level"`

	// Per module overrides, e.g. {"buffer": "debug"}.
	Modules map[string]string `mapstructure:"log-modules"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Encoder: ConsoleEncoder,
		Level:   zapcore.InfoLevel.String(),
	}
}

// NewNop creates silent logger.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// NewEncoder returns the zap encoder for the configured name.
func NewEncoder(name string) (zapcore.Encoder, error) {
	switch name {
	case "", ConsoleEncoder:
		return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), nil
	case JSONEncoder:
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	default:
		return nil, fmt.Errorf("unknown log encoder %q", name)
	}
}

// NewWithLevel creates a logger with a fixed level and with a set of (optional) hooks.
func NewWithLevel(module string,
	level zap.AtomicLevel,
	encoder zapcore.Encoder,
	hooks ...func(zapcore.Entry) error,
) *zap.Logger {
	core := zapcore.NewCore(encoder, zapcore.AddSync(logWriter), level)
	return zap.New(zapcore.RegisterHooks(core, hooks...)).Named(module)
}

// New builds the root logger from cfg.
func New(module string, cfg Config) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	enc, err := NewEncoder(cfg.Encoder)
	if err != nil {
		return nil, err
	}
	return NewWithLevel(module, lvl, enc), nil
}

// Module returns a named child of logger. If cfg carries a level override for the module
// the child logs at that level instead of the parent's.
func Module(logger *zap.Logger, cfg Config, name string) (*zap.Logger, error) {
	child := logger.Named(name)
	override, ok := cfg.Modules[name]
	if !ok {
		return child, nil
	}
	lvl, err := zapcore.ParseLevel(override)
	if err != nil {
		return nil, fmt.Errorf("parse level for module %s: %w", name, err)
	}
	return child.WithOptions(zap.IncreaseLevel(lvl)), nil
}
