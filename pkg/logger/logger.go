// Package logger builds the zap loggers used by the devchat commands.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures a logger.
type Options struct {
	Debug bool

	// Output receives log lines. Defaults to stdout. The terminal front-end
	// points this away from the screen it draws on.
	Output io.Writer
}

// New returns a console logger with colored levels and caller annotation.
func New(opts Options) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if f, ok := out.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		// Plain levels in files
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(out),
		level,
	)

	return zap.New(core, zap.AddCaller())
}

// OpenFile opens path for appending log lines, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
