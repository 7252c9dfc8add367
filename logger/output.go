package logger

import "sync/atomic"

// currentVerbosity is the -v count Initialize was called with. Stored
// atomically because gate checks run on every HTTP request and poll
// iteration, concurrently with (test-driven) re-initialization.
var currentVerbosity atomic.Int64

func setVerbosity(v int) {
	currentVerbosity.Store(int64(v))
}

// Verbosity returns the -v count the logger was initialized with.
func Verbosity() int {
	return int(currentVerbosity.Load())
}

// The gates below control what categories of detail are emitted, on top
// of the zap level. zap levels stop at Debug; these distinguish -vv from
// -vvv and -vvvv.

// ShowPairingRounds reports whether per-round pairing traces should be
// logged (-vvv and above). Round payloads contain challenge material, so
// they stay out of default logs.
func ShowPairingRounds() bool {
	return Verbosity() >= VerbosityTrace
}

// ShowHTTPBodies reports whether control-API request and response bodies
// should be logged untruncated (-vvvv). Below that, bodies are cut to
// BodyLogLimit bytes.
func ShowHTTPBodies() bool {
	return Verbosity() >= VerbosityFull
}

// BodyLogLimit is the truncation applied to logged request/response
// bodies when ShowHTTPBodies is off.
const BodyLogLimit = 256
