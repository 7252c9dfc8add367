// Package session implements the single-streaming-session lock and the
// event-sink boundary toward the streaming collaborator. The session
// itself lives outside this process; this package owns only the hand-off
// and its published terminal state.
// At most one streaming session may be in flight at a time;
// the collaborator publishes a terminal Result when its session ends.
package session

import (
	"sync"
	"time"
)

// EventSink receives cross-thread notifications the HTTP API and task
// manager raise; the UI collaborator supplies the implementation that
// forwards them on.
type EventSink interface {
	OnHostChanged(hostUUID string)
	OnStreamRequested(hostUUID string, appID int)
	OnQuitRequested(hostUUID string)
}

// Result is the terminal state the streaming collaborator publishes when
// a session ends, polled by GET /streamstate.
type Result struct {
	Completed   bool
	Succeeded   bool
	ErrorString string
}

// Manager owns the process-wide single-streaming-session lock plus the
// event sink wiring. There is exactly one Manager per process.
type Manager struct {
	mu        sync.Mutex
	busy      bool
	hostUUID  string
	appID     int
	startedAt time.Time

	resultMu sync.Mutex
	result   *Result

	sink EventSink
}

// New constructs a session manager. sink may be nil if nothing is
// listening for events yet; wire one later with SetSink once it exists
// (the HTTP API server is itself an EventSink and is constructed after
// the session manager it depends on).
func New(sink EventSink) *Manager {
	return &Manager{sink: sink}
}

// SetSink wires (or replaces) the event sink after construction.
func (m *Manager) SetSink(sink EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// TryAcquire attempts to begin a new streaming session for (hostUUID,
// appID), reporting whether the lock was free. Acquiring clears any
// previously published result.
func (m *Manager) TryAcquire(hostUUID string, appID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return false
	}
	m.busy = true
	m.hostUUID = hostUUID
	m.appID = appID
	m.startedAt = time.Now()

	m.resultMu.Lock()
	m.result = nil
	m.resultMu.Unlock()

	if m.sink != nil {
		m.sink.OnStreamRequested(hostUUID, appID)
	}
	return true
}

// Release frees the streaming session lock, called by the session
// collaborator when its session terminates.
func (m *Manager) Release() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

// Busy reports whether a streaming session currently holds the lock.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Active returns the (hostUUID, appID, startedAt) of the current session,
// or the zero values if none is active.
func (m *Manager) Active() (hostUUID string, appID int, startedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hostUUID, m.appID, m.startedAt
}

// PublishResult records the collaborator's terminal state, polled by
// GET /streamstate. Also releases the session lock, since a published
// result always means the session has ended.
func (m *Manager) PublishResult(r Result) {
	m.resultMu.Lock()
	m.result = &r
	m.resultMu.Unlock()
	m.Release()
}

// PollResult returns the last published result, or the zero (not yet
// completed) value if none has been published since the last TryAcquire.
func (m *Manager) PollResult() Result {
	m.resultMu.Lock()
	defer m.resultMu.Unlock()
	if m.result == nil {
		return Result{}
	}
	return *m.result
}

// NotifyHostChanged forwards a registry change to the event sink, for the
// websocket push channel toward the UI.
func (m *Manager) NotifyHostChanged(hostUUID string) {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink != nil {
		sink.OnHostChanged(hostUUID)
	}
}

// NotifyQuitRequested forwards a quit-app request to the event sink.
func (m *Manager) NotifyQuitRequested(hostUUID string) {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink != nil {
		sink.OnQuitRequested(hostUUID)
	}
}
