package transport

import "sync/atomic"

// stopFlag is a simple tripwire: once tripped it stays tripped until
// reset, polled cheaply via an atomic load.
type stopFlag struct {
	tripped atomic.Bool
}

func newStopFlag() *stopFlag { return &stopFlag{} }

func (s *stopFlag) trip()           { s.tripped.Store(true) }
func (s *stopFlag) reset()          { s.tripped.Store(false) }
func (s *stopFlag) isTripped() bool { return s.tripped.Load() }
