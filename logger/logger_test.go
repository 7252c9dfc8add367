package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{"json quiet", true, VerbosityQuiet},
		{"json verbose", true, VerbosityDebug},
		{"console quiet", false, VerbosityQuiet},
		{"console trace", false, VerbosityTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Equal(t, tt.verbosity, Verbosity())
			Logger.Sync()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityQuiet))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityFull+3))
}

func TestOutputGates(t *testing.T) {
	setVerbosity(VerbosityQuiet)
	assert.False(t, ShowPairingRounds())
	assert.False(t, ShowHTTPBodies())

	setVerbosity(VerbosityTrace)
	assert.True(t, ShowPairingRounds())
	assert.False(t, ShowHTTPBodies())

	setVerbosity(VerbosityFull)
	assert.True(t, ShowPairingRounds())
	assert.True(t, ShowHTTPBodies())
}

func TestDescribeVerbosity(t *testing.T) {
	// Every band has a distinct description.
	seen := map[string]bool{}
	for v := VerbosityQuiet; v <= VerbosityFull; v++ {
		d := DescribeVerbosity(v)
		assert.NotEmpty(t, d)
		assert.False(t, seen[d], "duplicate description for verbosity %d", v)
		seen[d] = true
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("everforest")

	SetTheme("gruvbox")
	assert.Equal(t, "gruvbox", currentTheme)

	// Unknown themes are ignored, not applied.
	SetTheme("solarized")
	assert.Equal(t, "gruvbox", currentTheme)
}

func TestCleanupBeforeInitialize(t *testing.T) {
	// The package-load default is a nop logger; Cleanup must be safe on it.
	Logger = zap.NewNop().Sugar()
	assert.NoError(t, Cleanup())
}

func TestPackageLevelWrappers(t *testing.T) {
	require.NoError(t, Initialize(true, VerbosityDebug))
	defer Logger.Sync()

	// None of these may panic; output goes to the process logger.
	Info("host online")
	Infof("host %s online", "7c2f")
	Infow("host online", "uuid", "7c2f")
	Warn("poll slow")
	Warnf("poll slow on %s", "7c2f")
	Warnw("poll slow", "duration_ms", 412)
	Error("pairing failed")
	Errorf("pairing failed for %s", "7c2f")
	Errorw("pairing failed", "error", "pin mismatch")
	Debug("save coalesced")
	Debugf("save coalesced %d times", 3)
	Debugw("save coalesced", "pending", 3)
}

func TestSymbolHelpers(t *testing.T) {
	base := zap.NewNop().Sugar()

	helpers := map[string]func(*zap.SugaredLogger) *zap.SugaredLogger{
		SymbolDiscovery: AddDiscoverySymbol,
		SymbolPairing:   AddPairingSymbol,
		SymbolPoll:      AddPollSymbol,
		SymbolTask:      AddTaskSymbol,
		SymbolHTTP:      AddHTTPSymbol,
		SymbolWatchdog:  AddWatchdogSymbol,
		SymbolDB:        AddDBSymbol,
	}
	for sym, add := range helpers {
		assert.NotNil(t, add(base), "helper for %s", sym)
	}
	assert.NotNil(t, WithSymbol(base, "custom"))
}
