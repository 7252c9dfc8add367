package logger

import "go.uber.org/zap/zapcore"

// Verbosity is the count of -v flags on the command line. Level 0 keeps
// the console quiet enough for a daemon supervised by the UI process;
// each extra -v opens up one more band of detail (see output.go for
// what each band contains).
const (
	VerbosityQuiet = 0 // warnings and errors only
	VerbosityInfo  = 1 // -v: lifecycle events
	VerbosityDebug = 2 // -vv: per-request and per-poll detail
	VerbosityTrace = 3 // -vvv: pairing rounds, internal flow
	VerbosityFull  = 4 // -vvvv: request/response bodies, SQL
)

// VerbosityToLevel maps a -v count to the zap level the core is built
// with. Everything past -vv still maps to DebugLevel; the finer bands
// are enforced by the category gates, not by zap.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch verbosity {
	case VerbosityQuiet:
		return zapcore.WarnLevel
	case VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// DescribeVerbosity names what a given -v count shows, for the startup
// banner.
func DescribeVerbosity(verbosity int) string {
	switch {
	case verbosity <= VerbosityQuiet:
		return "warnings and errors"
	case verbosity == VerbosityInfo:
		return "lifecycle events"
	case verbosity == VerbosityDebug:
		return "request and poll detail"
	case verbosity == VerbosityTrace:
		return "pairing round traces"
	default:
		return "full bodies and SQL"
	}
}
