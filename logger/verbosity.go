package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts.
//
// These levels control what categories of output are shown, not just log
// severity:
//
//	0 (none)  -> results and errors only
//	1 (-v)    -> + per-dataset progress, plugin resolution
//	2 (-vv)   -> + per-step timing, config details
//	3 (-vvv)  -> + step payload sizes, journal writes
const (
	VerbosityUser  = 0
	VerbosityInfo  = 1
	VerbosityDebug = 2
	VerbosityTrace = 3
)

// VerbosityToLevel maps verbosity flag counts (-v, -vv, ...) to zap levels.
// Zap has no level finer than Debug, so -vvv and beyond stay at Debug and
// callers gate trace output with ShouldLogTrace.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch verbosity {
	case VerbosityUser:
		return zapcore.WarnLevel
	case VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ShouldLogTrace returns true for verbosity >= 3 (-vvv)
func ShouldLogTrace(verbosity int) bool {
	return verbosity >= VerbosityTrace
}

// LevelName returns a human-readable name for a verbosity level
func LevelName(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "User"
	case VerbosityInfo:
		return "Info (-v)"
	case VerbosityDebug:
		return "Debug (-vv)"
	default:
		return "Trace (-vvv)"
	}
}
