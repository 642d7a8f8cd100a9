// Package sequence implements tick-driven units of work and the Sequencer that
// advances them once per simulation tick.
package sequence

import (
	"github.com/zurustar/scriptvm/pkg/world"
)

// Update is the per-tick context handed to every running Sequence.
type Update struct {
	Tick  uint64
	World *world.World
}

// Cleanup is the context of an abrupt stop (pause or teardown).
type Cleanup struct {
	World *world.World
}

// Sequence is a time-driven unit of work. Once Update returns a terminal Result
// the Sequence is never updated again.
type Sequence interface {
	Update(u *Update) Result
}

// Cleaner is implemented by sequences that must release world state when they are
// force-terminated instead of finishing normally.
type Cleaner interface {
	Cleanup(c *Cleanup)
}

func cleanup(seq Sequence, c *Cleanup) {
	if cl, ok := seq.(Cleaner); ok {
		cl.Cleanup(c)
	}
}

// Then runs first, then second. A Done(AdvanceNow) from first hands control to
// second within the same Update call; Done(Normal) defers it to the next tick.
// A cancelled first is cleaned up and the cancellation propagated.
type Then struct {
	first  Sequence
	second Sequence
}

// NewThen returns first followed by second.
func NewThen(first, second Sequence) *Then {
	return &Then{first: first, second: second}
}

// Seq composes the given sequences left to right with Then.
func Seq(first Sequence, rest ...Sequence) Sequence {
	s := first
	for _, next := range rest {
		s = NewThen(s, next)
	}
	return s
}

func (t *Then) Update(u *Update) Result {
	for t.first != nil {
		r := t.first.Update(u)
		switch {
		case r.IsRunning():
			return r
		case r.IsCancelled():
			cleanup(t.first, &Cleanup{World: u.World})
			t.first = nil
			return r
		}
		t.first = nil
		if r.Completion() == Normal {
			return Running(NotLagging)
		}
	}
	return t.second.Update(u)
}

func (t *Then) Cleanup(c *Cleanup) {
	if t.first != nil {
		cleanup(t.first, c)
		t.first = nil
	}
	cleanup(t.second, c)
}

// Signal cancels the sequence it was issued for. The target observes it at its
// next update.
type Signal struct {
	cancelled bool
}

// Cancel marks the signal. It returns true only for the call that changed it.
func (s *Signal) Cancel() bool {
	if s.cancelled {
		return false
	}
	s.cancelled = true
	return true
}

// Cancelled reports whether Cancel was called.
func (s *Signal) Cancelled() bool {
	return s.cancelled
}

type cancellable struct {
	seq    Sequence
	signal *Signal
}

// Cancellable wraps seq so that it reports Cancelled once the returned signal fires.
func Cancellable(seq Sequence) (Sequence, *Signal) {
	s := &Signal{}
	return &cancellable{seq: seq, signal: s}, s
}

func (c *cancellable) Update(u *Update) Result {
	if c.signal.Cancelled() {
		return Cancelled()
	}
	return c.seq.Update(u)
}

func (c *cancellable) Cleanup(cl *Cleanup) {
	cleanup(c.seq, cl)
}
