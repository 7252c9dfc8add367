// Package tasks implements the asynchronous task manager:
// a uniform start/poll/cancel pattern layered over pairing, add,
// delete, and quit-app operations. Each kind owns its own table, guarded
// by its own mutex; a table lock is only ever held long enough to touch
// the map, never while the task's own work runs.
package tasks

import (
	"sync"

	"github.com/google/uuid"
)

// Kind identifies which of the four task tables a Task belongs to.
type Kind string

const (
	KindPair    Kind = "pair"
	KindAdd     Kind = "add"
	KindDelete  Kind = "delete"
	KindQuitApp Kind = "quitapp"
)

// Result is the uniform poll response shape every task kind returns.
type Result struct {
	Completed   bool
	Succeeded   bool
	ErrorString string
}

// Task is a single-use async operation identified by a generated UUID.
// Construct only via a Manager's per-kind Start method.
type Task struct {
	id   string
	kind Kind

	mu     sync.Mutex
	result Result
	done   bool

	finished chan struct{} // closed by complete; wait joins on it

	cancelFn func() // non-nil only for cancelable kinds (pair)
}

func newTask(kind Kind) *Task {
	return &Task{id: uuid.NewString(), kind: kind, finished: make(chan struct{})}
}

// ID returns the task's generated identifier.
func (t *Task) ID() string { return t.id }

// complete records the task's terminal result. The work function backing
// a task must call this exactly once before returning.
func (t *Task) complete(succeeded bool, errString string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		panic("tasks: complete called twice on task " + t.id)
	}
	t.done = true
	t.result = Result{Completed: true, Succeeded: succeeded, ErrorString: errString}
	close(t.finished)
}

// wait blocks until complete has been called.
func (t *Task) wait() { <-t.finished }

// poll returns the task's current result: the zero Result until complete
// has been called.
func (t *Task) poll() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// setCancel registers the function Cancel should invoke.
func (t *Task) setCancel(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelFn = fn
}
