package sequence

import "fmt"

// Lag tells the driver whether real time has outpaced a running unit.
type Lag uint8

const (
	NotLagging Lag = iota
	Lagging
)

func (l Lag) String() string {
	if l == Lagging {
		return "Lagging"
	}
	return "NotLagging"
}

// Completion says when the successor of a finished unit may run.
type Completion uint8

const (
	// Normal completion is recognized no earlier than the following tick.
	Normal Completion = iota
	// AdvanceNow lets the successor run within the same tick.
	AdvanceNow
)

func (c Completion) String() string {
	if c == AdvanceNow {
		return "AdvanceNow"
	}
	return "Normal"
}

type state uint8

const (
	stateRunning state = iota
	stateDone
	stateCancelled
)

// Result is what a Sequence reports from one Update.
type Result struct {
	state      state
	lag        Lag
	completion Completion
}

// Running reports that the unit needs another tick.
func Running(lag Lag) Result {
	return Result{state: stateRunning, lag: lag}
}

// Done reports terminal completion.
func Done(c Completion) Result {
	return Result{state: stateDone, completion: c}
}

// Cancelled reports early termination through a cancellation signal.
func Cancelled() Result {
	return Result{state: stateCancelled}
}

func (r Result) IsRunning() bool   { return r.state == stateRunning }
func (r Result) IsDone() bool      { return r.state == stateDone }
func (r Result) IsCancelled() bool { return r.state == stateCancelled }

// Terminal reports whether the unit must never be updated again.
func (r Result) Terminal() bool { return r.state != stateRunning }

// Lag is meaningful for Running results only.
func (r Result) Lag() Lag { return r.lag }

// Completion is meaningful for Done results only.
func (r Result) Completion() Completion { return r.completion }

func (r Result) String() string {
	switch r.state {
	case stateRunning:
		return fmt.Sprintf("Running(%s)", r.lag)
	case stateDone:
		return fmt.Sprintf("Done(%s)", r.completion)
	default:
		return "Cancelled"
	}
}
