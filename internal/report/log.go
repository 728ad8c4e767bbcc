package report

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// LogLevel is a configurable log level
	LogLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

	// https://pkg.go.dev/go.uber.org/zap?utm_source=godoc#AtomicLevel
	l = zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			LogLevel,
		),
	)

	// rlog is the default sugared logger
	rlog = l.Sugar()
)

// AddLogFile tees the logger into the given file, keeping the stderr core.
func AddLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(f),
		LogLevel,
	)
	l = l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
	rlog = l.Sugar()
	return nil
}
