// Package watchdog implements the heartbeat watchdog:
// the core has no lifetime of its own beyond its parent process, so it
// polls the OS process list once a second for a configured process name
// and shuts itself down the moment that name disappears.
package watchdog

import (
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/logger"
)

const (
	probeInterval = 1 * time.Second
	pollChunkSize = 100 * time.Millisecond
)

// ShutdownFunc is invoked exactly once, when the watched process
// disappears. It must route through the same graceful-shutdown path as
// an explicit GET /exit.
type ShutdownFunc func()

// Watchdog polls for a named parent process and triggers shutdown when it
// is gone.
type Watchdog struct {
	processName string
	onMissing   ShutdownFunc
	log         *zap.SugaredLogger

	stop chan struct{}
	done chan struct{}
}

// New constructs a Watchdog. An empty processName disables the probe
// entirely, for deployments with no parent process to watch.
func New(processName string, onMissing ShutdownFunc, log *zap.SugaredLogger) *Watchdog {
	return &Watchdog{
		processName: processName,
		onMissing:   onMissing,
		log:         logger.AddWatchdogSymbol(log),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run blocks, probing every second, until Stop is called or the watched
// process disappears, in which case onMissing fires once before Run
// returns.
func (w *Watchdog) Run() {
	defer close(w.done)

	if w.processName == "" {
		w.log.Infow("watchdog disabled: no watchdog process name configured")
		<-w.stop
		return
	}

	w.log.Infow("watchdog armed", "process", w.processName)
	for {
		if !w.sleepInterruptible(probeInterval) {
			return
		}
		alive, err := w.processAlive()
		if err != nil {
			w.log.Warnw("process enumeration failed", "error", err)
			continue
		}
		if !alive {
			w.log.Warnw("watched process disappeared, initiating shutdown", "process", w.processName)
			w.onMissing()
			return
		}
	}
}

// Stop requests Run return at the next wake-up without firing onMissing.
func (w *Watchdog) Stop() { close(w.stop) }

// Wait blocks until Run has returned.
func (w *Watchdog) Wait() { <-w.done }

func (w *Watchdog) sleepInterruptible(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		select {
		case <-w.stop:
			return false
		case <-time.After(pollChunkSize):
		}
	}
	return true
}

func (w *Watchdog) processAlive() (bool, error) {
	procs, err := process.Processes()
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if strings.EqualFold(name, w.processName) {
			return true, nil
		}
	}
	return false, nil
}
