package tasks

import "sync"

// table is one kind's map of in-flight/completed tasks, guarded by its
// own mutex.
type table struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func newTable() *table {
	return &table{tasks: make(map[string]*Task)}
}

func (tb *table) insert(t *Task) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tasks[t.id] = t
}

func (tb *table) get(id string) (*Task, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	t, ok := tb.tasks[id]
	return t, ok
}

func (tb *table) remove(id string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	delete(tb.tasks, id)
}

// Manager owns the four per-kind task tables and the optional audit log
// every completed task is recorded to.
type Manager struct {
	pair    *table
	add     *table
	del     *table
	quitApp *table

	audit *AuditLog // nil disables audit logging
}

// NewManager constructs an empty task manager. audit may be nil.
func NewManager(audit *AuditLog) *Manager {
	return &Manager{
		pair:    newTable(),
		add:     newTable(),
		del:     newTable(),
		quitApp: newTable(),
		audit:   audit,
	}
}

func (m *Manager) tableFor(kind Kind) *table {
	switch kind {
	case KindPair:
		return m.pair
	case KindAdd:
		return m.add
	case KindDelete:
		return m.del
	case KindQuitApp:
		return m.quitApp
	default:
		return nil
	}
}

// start registers a fresh task of kind and runs work in its own goroutine.
// work must call t.complete exactly once before returning.
func (m *Manager) start(kind Kind, hostUUID string, work func(t *Task)) *Task {
	t := newTask(kind)
	m.tableFor(kind).insert(t)

	go func() {
		work(t)
		if m.audit != nil {
			m.audit.Record(kind, hostUUID, t.poll())
		}
	}()
	return t
}

// Poll returns id's result and whether it is a known task of kind.
func (m *Manager) Poll(kind Kind, id string) (Result, bool) {
	tb := m.tableFor(kind)
	if tb == nil {
		return Result{}, false
	}
	t, ok := tb.get(id)
	if !ok {
		return Result{}, false
	}
	return t.poll(), true
}

// Cancel cancels a pair task, the only first-class cancelable kind:
// signal the transport stop flag, join the worker, then remove the task
// from its table so later polls see "not found". Reports whether the
// task existed.
func (m *Manager) Cancel(id string) bool {
	t, ok := m.pair.get(id)
	if !ok {
		return false
	}
	t.mu.Lock()
	cancel := t.cancelFn
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	t.wait()
	m.pair.remove(id)
	return true
}
