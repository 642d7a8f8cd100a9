package sequence

import (
	"log/slog"

	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/world"
)

// Chain is an ordered queue of sequences bound to one subject.
type Chain struct {
	subject  world.Handle
	queue    []Sequence
	signal   *Signal
	finished bool
}

// NewChain creates a chain for subject starting with seq.
func NewChain(subject world.Handle, seq Sequence) *Chain {
	return &Chain{subject: subject, queue: []Sequence{seq}, signal: &Signal{}}
}

// Subject returns the object the chain belongs to.
func (c *Chain) Subject() world.Handle { return c.subject }

// Signal returns the chain's cancellation signal.
func (c *Chain) Signal() *Signal { return c.signal }

// Push appends seq to the end of the chain.
func (c *Chain) Push(seq Sequence) {
	c.queue = append(c.queue, seq)
}

// Len returns the number of sequences not yet finished.
func (c *Chain) Len() int { return len(c.queue) }

func (c *Chain) Update(u *Update) Result {
	if c.finished {
		return Cancelled()
	}
	if c.signal.Cancelled() {
		c.Cleanup(&Cleanup{World: u.World})
		return Cancelled()
	}
	for len(c.queue) > 0 {
		r := c.queue[0].Update(u)
		// The head may have replaced or cleaned up this chain.
		if c.finished {
			return Cancelled()
		}
		if r.IsRunning() {
			return r
		}
		if r.IsCancelled() {
			c.Cleanup(&Cleanup{World: u.World})
			return r
		}
		c.queue[0] = nil
		c.queue = c.queue[1:]
		if len(c.queue) == 0 {
			c.finished = true
			return r
		}
		if r.Completion() == Normal {
			return Running(NotLagging)
		}
	}
	c.finished = true
	return Done(AdvanceNow)
}

func (c *Chain) Cleanup(cl *Cleanup) {
	for _, seq := range c.queue {
		cleanup(seq, cl)
	}
	c.queue = nil
	c.finished = true
}

// Sequencer holds at most one live Chain per subject and drives all of them once
// per tick in registration order.
type Sequencer struct {
	chains []*Chain

	log *slog.Logger
}

// Option is a functional option for configuring the Sequencer.
type Option func(*Sequencer)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Sequencer) {
		s.log = log
	}
}

// NewSequencer creates an empty Sequencer.
func NewSequencer(opts ...Option) *Sequencer {
	s := &Sequencer{log: logger.For("sequencer")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequencer) find(subject world.Handle) (int, *Chain) {
	for i, c := range s.chains {
		if c.subject == subject && !c.finished {
			return i, c
		}
	}
	return -1, nil
}

// Start replaces the subject's chain with a new one running seq. The previous
// chain's signal is cancelled before the new chain is registered.
func (s *Sequencer) Start(subject world.Handle, seq Sequence) *Signal {
	if _, prev := s.find(subject); prev != nil {
		prev.signal.Cancel()
		prev.finished = true
		prev.queue = nil
		s.log.Debug("Sequence replaced", "subject", subject)
	}
	c := NewChain(subject, seq)
	s.chains = append(s.chains, c)
	s.log.Debug("Sequence started", "subject", subject)
	return c.signal
}

// Append queues seq after the subject's current chain, or starts a chain if the
// subject has none.
func (s *Sequencer) Append(subject world.Handle, seq Sequence) *Signal {
	_, c := s.find(subject)
	if c == nil || c.signal.Cancelled() {
		return s.Start(subject, seq)
	}
	c.Push(seq)
	return c.signal
}

// Cancel signals the subject's chain. It is removed by the next Update.
func (s *Sequencer) Cancel(subject world.Handle) bool {
	_, c := s.find(subject)
	if c == nil {
		return false
	}
	if c.signal.Cancel() {
		s.log.Debug("Sequence cancelled", "subject", subject)
	}
	return true
}

// CancelAll signals every chain.
func (s *Sequencer) CancelAll() {
	for _, c := range s.chains {
		c.signal.Cancel()
	}
}

// Has reports whether subject has a live, uncancelled chain.
func (s *Sequencer) Has(subject world.Handle) bool {
	_, c := s.find(subject)
	return c != nil && !c.signal.Cancelled()
}

// Len returns the number of live chains.
func (s *Sequencer) Len() int {
	n := 0
	for _, c := range s.chains {
		if !c.finished {
			n++
		}
	}
	return n
}

// Update drives every chain once, in registration order, and drops those that
// reached a terminal state. It reports Lagging if any chain lagged.
// Chains started while updating run from the next tick.
func (s *Sequencer) Update(u *Update) Lag {
	lag := NotLagging
	chains := s.chains
	for _, c := range chains {
		if c.finished {
			continue
		}
		r := c.Update(u)
		switch {
		case r.IsCancelled():
			s.log.Debug("Sequence removed after cancel", "subject", c.subject)
		case r.IsRunning() && r.Lag() == Lagging:
			lag = Lagging
		}
	}
	s.compact()
	return lag
}

func (s *Sequencer) compact() {
	kept := s.chains[:0]
	for _, c := range s.chains {
		if !c.finished {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(s.chains); i++ {
		s.chains[i] = nil
	}
	s.chains = kept
}

// Cleanup force-terminates every chain without driving Update. It may be called
// from a running sequence. Cleaner hooks run,
// Done semantics do not.
func (s *Sequencer) Cleanup(c *Cleanup) {
	if len(s.chains) == 0 {
		return
	}
	for _, ch := range s.chains {
		ch.signal.Cancel()
		ch.Cleanup(c)
	}
	s.log.Debug("Sequencer cleaned up", "chains", len(s.chains))
	s.chains = nil
}

// Prune drops cancelled chains without touching the others.
func (s *Sequencer) Prune() {
	for _, c := range s.chains {
		if c.signal.Cancelled() {
			c.finished = true
			c.queue = nil
		}
	}
	s.compact()
}
