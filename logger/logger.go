// Package logger owns the process-wide zap logger. Every subsystem
// receives the shared *zap.SugaredLogger (or a .With-scoped child)
// from here; nothing else in the module constructs its own zap core.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide sugared logger. It is a no-op until
// Initialize runs, so early call sites never hit a nil pointer.
var Logger *zap.SugaredLogger

// JSONOutput records which encoder Initialize selected.
var JSONOutput bool

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize builds the process logger. jsonOutput selects machine-readable
// JSON lines over the colored console encoder; verbosity is the -v flag
// count and controls both the zap level and the output-category gates in
// output.go. The console color theme can be overridden with the
// HOSTCORE_LOG_THEME environment variable.
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	setVerbosity(verbosity)

	if theme := os.Getenv("HOSTCORE_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}

	level := VerbosityToLevel(verbosity)

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		zl, err := cfg.Build()
		if err != nil {
			return err
		}
		Logger = zl.Sugar()
		return nil
	}

	zl := zap.New(zapcore.NewCore(
		newConsoleEncoder(),
		zapcore.AddSync(os.Stdout),
		level,
	))
	Logger = zl.Sugar()
	return nil
}

// Cleanup flushes buffered entries. Sync errors on stdout are common
// (EINVAL on Linux and macOS) and safe to ignore at the call site.
func Cleanup() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}

// Package-level wrappers so call sites without an injected logger can
// still log through the shared instance.

func Info(args ...interface{})  { Logger.Info(args...) }
func Warn(args ...interface{})  { Logger.Warn(args...) }
func Error(args ...interface{}) { Logger.Error(args...) }
func Debug(args ...interface{}) { Logger.Debug(args...) }

func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }

func Infow(msg string, kv ...interface{})  { Logger.Infow(msg, kv...) }
func Warnw(msg string, kv ...interface{})  { Logger.Warnw(msg, kv...) }
func Errorw(msg string, kv ...interface{}) { Logger.Errorw(msg, kv...) }
func Debugw(msg string, kv ...interface{}) { Logger.Debugw(msg, kv...) }
