package logger

import "go.uber.org/zap"

// FieldSymbol is the structured-field key carrying the component symbol;
// the console encoder lifts it out of the field list and renders it as a
// bracketed tag ahead of the message.
const FieldSymbol = "symbol"

// Component symbols tag log lines by subsystem so they stay greppable
// and filterable without a dedicated log-query tool.
const (
	SymbolDiscovery = "disc"
	SymbolPairing   = "pair"
	SymbolPoll      = "poll"
	SymbolTask      = "task"
	SymbolHTTP      = "http"
	SymbolWatchdog  = "wdog"
	SymbolDB        = "db"
)

// AddDiscoverySymbol returns a logger with the discovery component symbol attached.
func AddDiscoverySymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.With(FieldSymbol, SymbolDiscovery)
}

// AddPairingSymbol returns a logger with the pairing component symbol attached.
func AddPairingSymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.With(FieldSymbol, SymbolPairing)
}

// AddPollSymbol returns a logger with the poller component symbol attached.
func AddPollSymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.With(FieldSymbol, SymbolPoll)
}

// AddTaskSymbol returns a logger with the task manager component symbol attached.
func AddTaskSymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.With(FieldSymbol, SymbolTask)
}

// AddHTTPSymbol returns a logger with the control API component symbol attached.
func AddHTTPSymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.With(FieldSymbol, SymbolHTTP)
}

// AddWatchdogSymbol returns a logger with the watchdog component symbol attached.
func AddWatchdogSymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.With(FieldSymbol, SymbolWatchdog)
}

// AddDBSymbol returns a logger with the storage component symbol attached.
func AddDBSymbol(log *zap.SugaredLogger) *zap.SugaredLogger {
	return log.With(FieldSymbol, SymbolDB)
}

// WithSymbol returns a logger with an arbitrary symbol field, for call sites
// that don't fit one of the named helpers above.
func WithSymbol(log *zap.SugaredLogger, symbol string) *zap.SugaredLogger {
	return log.With(FieldSymbol, symbol)
}
