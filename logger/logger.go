// Package logger provides the global structured logger for gridx.
//
// The logger defaults to a no-op until Initialize is called, so packages
// may log at any point without nil checks. Console output is the default;
// JSON output is available for machine consumption (--json, CI).
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger instance
	Logger *zap.SugaredLogger
	// JSONOutput tracks whether JSON output is enabled
	JSONOutput bool
)

func init() {
	// Safe no-op logger at package load time, prevents nil pointer panics
	// if logging happens before Initialize() is called
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger based on the JSON output preference.
// Verbosity is the count of -v flags; see verbosity.go for the mapping.
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	level := VerbosityToLevel(verbosity)

	var zapLogger *zap.Logger
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		built, err := config.Build()
		if err != nil {
			return err
		}
		zapLogger = built
	} else {
		// Human-readable console output, calm formatting: no timestamps or
		// caller info at user verbosity
		encoderConfig := zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}
		if verbosity >= VerbosityDebug {
			encoderConfig.TimeKey = "ts"
			encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
			encoderConfig.CallerKey = "caller"
			encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		}
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encoderConfig),
				zapcore.AddSync(os.Stderr),
				level,
			),
		)
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Named returns a child logger scoped to a component (e.g. a plugin format).
func Named(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	Logger.Infow(msg, keysAndValues...)
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	Logger.Warnw(msg, keysAndValues...)
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	Logger.Errorw(msg, keysAndValues...)
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	Logger.Debugw(msg, keysAndValues...)
}
