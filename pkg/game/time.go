package game

// PausableTime is the simulation clock, counted in ticks. It stands still while
// paused.
type PausableTime struct {
	tick   uint64
	paused bool
}

// NewPausableTime returns a running clock at tick.
func NewPausableTime(tick uint64) PausableTime {
	return PausableTime{tick: tick}
}

func (t *PausableTime) IsPaused() bool        { return t.paused }
func (t *PausableTime) IsRunning() bool       { return !t.paused }
func (t *PausableTime) SetPaused(paused bool) { t.paused = paused }
func (t *PausableTime) Toggle()               { t.paused = !t.paused }
func (t *PausableTime) Tick() uint64          { return t.tick }

// Advance moves the clock forward by n ticks unless paused, and returns the
// current tick.
func (t *PausableTime) Advance(n uint64) uint64 {
	if !t.paused {
		t.tick += n
	}
	return t.tick
}
