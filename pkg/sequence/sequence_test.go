package sequence

import (
	"testing"

	"github.com/zurustar/scriptvm/pkg/world"
)

// scripted returns the queued results in order and records the tick of every update.
type scripted struct {
	name    string
	results []Result
	ticks   []uint64
	cleaned int
}

func newScripted(name string, results ...Result) *scripted {
	return &scripted{name: name, results: results}
}

func (s *scripted) Update(u *Update) Result {
	s.ticks = append(s.ticks, u.Tick)
	if len(s.ticks) > len(s.results) {
		panic(s.name + ": updated after terminal result")
	}
	return s.results[len(s.ticks)-1]
}

func (s *scripted) Cleanup(*Cleanup) {
	s.cleaned++
}

// forever never finishes.
type forever struct {
	ticks []uint64
}

func (f *forever) Update(u *Update) Result {
	f.ticks = append(f.ticks, u.Tick)
	return Running(NotLagging)
}

func tick(t uint64) *Update {
	return &Update{Tick: t, World: world.New()}
}

func TestResult(t *testing.T) {
	tests := []struct {
		r        Result
		terminal bool
		str      string
	}{
		{Running(NotLagging), false, "Running(NotLagging)"},
		{Running(Lagging), false, "Running(Lagging)"},
		{Done(Normal), true, "Done(Normal)"},
		{Done(AdvanceNow), true, "Done(AdvanceNow)"},
		{Cancelled(), true, "Cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if tt.r.Terminal() != tt.terminal {
				t.Errorf("Terminal() = %v", tt.r.Terminal())
			}
			if tt.r.String() != tt.str {
				t.Errorf("String() = %q", tt.r.String())
			}
		})
	}
	if Done(Normal).IsCancelled() || !Cancelled().IsCancelled() {
		t.Error("Cancelled must be distinct from Done")
	}
}

func TestThen(t *testing.T) {
	t.Run("done normal defers second to next tick", func(t *testing.T) {
		a := newScripted("a", Running(NotLagging), Done(Normal))
		b := newScripted("b", Done(Normal))
		then := NewThen(a, b)

		if r := then.Update(tick(1)); !r.IsRunning() {
			t.Fatalf("tick 1: %s", r)
		}
		if r := then.Update(tick(2)); r != Running(NotLagging) {
			t.Fatalf("tick 2: %s", r)
		}
		if len(b.ticks) != 0 {
			t.Fatal("b must not run on the tick a finished")
		}
		if r := then.Update(tick(3)); r != Done(Normal) {
			t.Fatalf("tick 3: %s", r)
		}
		if b.ticks[0] != 3 {
			t.Errorf("b first update at %d, want 3", b.ticks[0])
		}
	})

	t.Run("advance now runs second in the same call", func(t *testing.T) {
		a := newScripted("a", Done(AdvanceNow))
		b := newScripted("b", Running(Lagging))
		then := NewThen(a, b)

		if r := then.Update(tick(7)); r != Running(Lagging) {
			t.Fatalf("result = %s, want second's result", r)
		}
		if len(b.ticks) != 1 || b.ticks[0] != 7 {
			t.Errorf("b ticks = %v", b.ticks)
		}
	})

	t.Run("running propagates lag", func(t *testing.T) {
		a := newScripted("a", Running(Lagging))
		then := NewThen(a, newScripted("b"))
		if r := then.Update(tick(1)); r != Running(Lagging) {
			t.Errorf("result = %s", r)
		}
	})

	t.Run("cancelled first is propagated", func(t *testing.T) {
		a := newScripted("a", Cancelled())
		b := newScripted("b", Done(Normal))
		then := NewThen(a, b)
		if r := then.Update(tick(1)); !r.IsCancelled() {
			t.Errorf("result = %s", r)
		}
		if len(b.ticks) != 0 {
			t.Error("second must not run after a cancelled first")
		}
	})

	t.Run("cleanup reaches both parts", func(t *testing.T) {
		a := newScripted("a", Running(NotLagging))
		b := newScripted("b")
		then := NewThen(a, b)
		then.Update(tick(1))
		then.Cleanup(&Cleanup{})
		if a.cleaned != 1 || b.cleaned != 1 {
			t.Errorf("cleaned a=%d b=%d", a.cleaned, b.cleaned)
		}
	})
}

func TestThenLongChainCollapsesInOneCall(t *testing.T) {
	// A long left-nested chain of AdvanceNow units finishes within one call.
	const n = 10000
	parts := make([]Sequence, n)
	for i := range parts {
		parts[i] = newScripted("p", Done(AdvanceNow))
	}
	last := newScripted("last", Running(NotLagging))
	seq := Seq(parts[0], append(parts[1:], last)...)

	if r := seq.Update(tick(1)); r != Running(NotLagging) {
		t.Fatalf("result = %s", r)
	}
	if len(last.ticks) != 1 {
		t.Error("last unit must run within the same call")
	}
}

func TestCancellable(t *testing.T) {
	inner := &forever{}
	seq, signal := Cancellable(inner)

	if r := seq.Update(tick(1)); !r.IsRunning() {
		t.Fatalf("result = %s", r)
	}
	if !signal.Cancel() {
		t.Fatal("first Cancel must report the state change")
	}
	if signal.Cancel() {
		t.Error("second Cancel must be a no-op")
	}
	if r := seq.Update(tick(2)); !r.IsCancelled() {
		t.Errorf("result = %s", r)
	}
	if len(inner.ticks) != 1 {
		t.Error("cancelled sequence must not drive its inner unit")
	}
}

func TestChain(t *testing.T) {
	t.Run("normal and advance now", func(t *testing.T) {
		a := newScripted("a", Done(Normal))
		b := newScripted("b", Done(AdvanceNow))
		c := newScripted("c", Done(Normal))
		ch := NewChain(1, a)
		ch.Push(b)
		ch.Push(c)

		if r := ch.Update(tick(1)); r != Running(NotLagging) {
			t.Fatalf("tick 1: %s", r)
		}
		if r := ch.Update(tick(2)); r != Done(Normal) {
			t.Fatalf("tick 2: %s", r)
		}
		if b.ticks[0] != 2 || c.ticks[0] != 2 {
			t.Errorf("b=%v c=%v", b.ticks, c.ticks)
		}
		if ch.Len() != 0 {
			t.Errorf("Len() = %d", ch.Len())
		}
	})

	t.Run("cancel stops at next update", func(t *testing.T) {
		a := &forever{}
		ch := NewChain(1, a)
		ch.Update(tick(1))
		ch.Signal().Cancel()
		if r := ch.Update(tick(2)); !r.IsCancelled() {
			t.Errorf("result = %s", r)
		}
		if len(a.ticks) != 1 {
			t.Error("cancelled chain must not drive its head")
		}
	})
}

func TestSequencer(t *testing.T) {
	t.Run("update order and removal", func(t *testing.T) {
		s := NewSequencer()
		var order []string
		s.Start(1, Func(func(*Update) Result { order = append(order, "one"); return Done(Normal) }))
		s.Start(2, Func(func(*Update) Result { order = append(order, "two"); return Running(NotLagging) }))
		s.Start(3, Func(func(*Update) Result { order = append(order, "three"); return Running(Lagging) }))

		if lag := s.Update(tick(1)); lag != Lagging {
			t.Errorf("lag = %s", lag)
		}
		if len(order) != 3 || order[0] != "one" || order[1] != "two" || order[2] != "three" {
			t.Errorf("order = %v", order)
		}
		if s.Len() != 2 || s.Has(1) || !s.Has(2) {
			t.Errorf("Len=%d Has(1)=%v Has(2)=%v", s.Len(), s.Has(1), s.Has(2))
		}
	})

	t.Run("append queues after current chain", func(t *testing.T) {
		s := NewSequencer()
		a := newScripted("a", Done(Normal))
		b := newScripted("b", Done(Normal))
		s.Start(1, a)
		s.Append(1, b)
		s.Update(tick(1))
		s.Update(tick(2))
		if len(b.ticks) != 1 || b.ticks[0] != 2 {
			t.Errorf("b ticks = %v", b.ticks)
		}
		if s.Has(1) {
			t.Error("finished chain must be removed")
		}
	})

	t.Run("append without chain starts one", func(t *testing.T) {
		s := NewSequencer()
		s.Append(5, &forever{})
		if !s.Has(5) {
			t.Error("Append must start a chain")
		}
	})

	t.Run("cancel removes by next update", func(t *testing.T) {
		s := NewSequencer()
		f := &forever{}
		s.Start(1, f)
		s.Update(tick(1))
		if !s.Cancel(1) {
			t.Fatal("Cancel returned false")
		}
		if s.Has(1) {
			t.Error("Has must be false once cancelled")
		}
		s.Update(tick(2))
		if s.Len() != 0 {
			t.Errorf("Len() = %d", s.Len())
		}
		if len(f.ticks) != 1 {
			t.Error("cancelled sequence updated after cancel")
		}
		if s.Cancel(1) {
			t.Error("Cancel of unknown subject must return false")
		}
	})

	t.Run("cleanup never drives update", func(t *testing.T) {
		s := NewSequencer()
		a := newScripted("a", Done(AdvanceNow))
		b := newScripted("b", Done(Normal))
		s.Start(1, NewThen(a, b))
		s.Start(2, newScripted("c"))
		s.Cleanup(&Cleanup{})

		if len(a.ticks) != 0 || len(b.ticks) != 0 {
			t.Error("Cleanup must not call Update")
		}
		if a.cleaned != 1 || b.cleaned != 1 {
			t.Errorf("cleaned a=%d b=%d", a.cleaned, b.cleaned)
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d", s.Len())
		}
	})

	t.Run("prune drops cancelled only", func(t *testing.T) {
		s := NewSequencer()
		s.Start(1, &forever{})
		s.Start(2, &forever{})
		s.Cancel(1)
		s.Prune()
		if s.Len() != 1 || !s.Has(2) {
			t.Errorf("Len=%d Has(2)=%v", s.Len(), s.Has(2))
		}
	})

	t.Run("start during update runs next tick", func(t *testing.T) {
		s := NewSequencer()
		late := &forever{}
		s.Start(1, Func(func(*Update) Result {
			s.Start(2, late)
			return Done(Normal)
		}))
		s.Update(tick(1))
		if len(late.ticks) != 0 {
			t.Error("chain started mid-update ran in the same tick")
		}
		s.Update(tick(2))
		if len(late.ticks) != 1 {
			t.Errorf("late ticks = %v", late.ticks)
		}
	})

	t.Run("restart own subject during update", func(t *testing.T) {
		s := NewSequencer()
		next := &forever{}
		s.Start(1, Func(func(*Update) Result {
			s.Start(1, next)
			return Done(AdvanceNow)
		}))
		s.Update(tick(1))
		if !s.Has(1) || s.Len() != 1 {
			t.Fatalf("Has=%v Len=%d", s.Has(1), s.Len())
		}
		s.Update(tick(2))
		if len(next.ticks) != 1 {
			t.Errorf("replacement ticks = %v", next.ticks)
		}
	})

	t.Run("cleanup during update", func(t *testing.T) {
		s := NewSequencer()
		other := newScripted("other", Running(NotLagging))
		s.Start(1, Func(func(*Update) Result {
			s.Cleanup(&Cleanup{})
			return Running(NotLagging)
		}))
		s.Start(2, other)
		s.Update(tick(1))
		if s.Len() != 0 {
			t.Errorf("Len() = %d", s.Len())
		}
		if len(other.ticks) != 0 || other.cleaned != 1 {
			t.Errorf("other ticks=%v cleaned=%d", other.ticks, other.cleaned)
		}
	})

	t.Run("cancel runs cleanup hooks", func(t *testing.T) {
		s := NewSequencer()
		a := newScripted("a", Running(NotLagging))
		b := newScripted("b")
		s.Start(1, a)
		s.Append(1, b)
		s.Update(tick(1))
		s.Cancel(1)
		s.Update(tick(2))
		if a.cleaned != 1 || b.cleaned != 1 {
			t.Errorf("cleaned a=%d b=%d", a.cleaned, b.cleaned)
		}
		if len(a.ticks) != 1 || len(b.ticks) != 0 {
			t.Errorf("a ticks=%v b ticks=%v", a.ticks, b.ticks)
		}
	})
}

// Func adapts a function to the Sequence interface.
type Func func(u *Update) Result

func (f Func) Update(u *Update) Result { return f(u) }
