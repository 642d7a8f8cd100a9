// Package action provides the leaf sequences that animate objects: moving along a
// path, standing, playing an animation and waiting.
package action

import (
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

// DefaultTicksPerStep is the walking speed used when none is given.
const DefaultTicksPerStep = 2

// Move walks an object along a path, one tile per step. Intermediate steps only
// reposition the object; landing on the final tile emits the arrival.
type Move struct {
	obj          world.Handle
	anim         world.Anim
	path         []int
	ticksPerStep uint64

	started bool
	start   uint64
	done    int
}

// NewMove creates a Move. ticksPerStep below 1 is treated as 1.
func NewMove(obj world.Handle, anim world.Anim, path []int, ticksPerStep int) *Move {
	if ticksPerStep < 1 {
		ticksPerStep = 1
	}
	return &Move{obj: obj, anim: anim, path: path, ticksPerStep: uint64(ticksPerStep)}
}

// Remaining returns the number of steps not taken yet.
func (m *Move) Remaining() int {
	return len(m.path) - m.done
}

func (m *Move) Update(u *sequence.Update) sequence.Result {
	obj, ok := u.World.Get(m.obj)
	if !ok || len(m.path) == 0 {
		return sequence.Done(sequence.AdvanceNow)
	}
	if !m.started {
		m.started = true
		m.start = u.Tick
		obj.Anim = m.anim
		obj.Frame = 0
	}

	due := int((u.Tick - m.start + 1) / m.ticksPerStep)
	if due > len(m.path) {
		due = len(m.path)
	}
	if m.done < due {
		from := obj.Tile
		next := m.path[m.done]
		m.done++
		obj.Direction = world.DirectionTo(from, next)
		obj.Frame++
		if m.done == len(m.path) {
			u.World.Arrive(m.obj, next)
			return sequence.Done(sequence.Normal)
		}
		u.World.SetTile(m.obj, next)
	}
	if due > m.done {
		return sequence.Running(sequence.Lagging)
	}
	return sequence.Running(sequence.NotLagging)
}

// Cleanup puts an object stopped mid-path back into its standing pose. No
// arrival is emitted.
func (m *Move) Cleanup(c *sequence.Cleanup) {
	if !m.started || m.done == len(m.path) || c.World == nil {
		return
	}
	if obj, ok := c.World.Get(m.obj); ok && obj.Anim == m.anim {
		obj.Anim = world.AnimStand
		obj.Frame = 0
	}
}

// Stand puts the object into its standing pose. It takes no time.
type Stand struct {
	obj world.Handle
}

func NewStand(obj world.Handle) *Stand {
	return &Stand{obj: obj}
}

func (s *Stand) Update(u *sequence.Update) sequence.Result {
	if obj, ok := u.World.Get(s.obj); ok {
		obj.Anim = world.AnimStand
		obj.Frame = 0
	}
	return sequence.Done(sequence.AdvanceNow)
}

// Animate plays anim for a fixed number of frames, one frame per tick.
type Animate struct {
	obj    world.Handle
	anim   world.Anim
	frames int
	played int
}

func NewAnimate(obj world.Handle, anim world.Anim, frames int) *Animate {
	return &Animate{obj: obj, anim: anim, frames: frames}
}

func (a *Animate) Update(u *sequence.Update) sequence.Result {
	obj, ok := u.World.Get(a.obj)
	if !ok || a.played >= a.frames {
		return sequence.Done(sequence.AdvanceNow)
	}
	if a.played == 0 {
		obj.Anim = a.anim
	}
	obj.Frame = a.played
	a.played++
	if a.played == a.frames {
		return sequence.Done(sequence.Normal)
	}
	return sequence.Running(sequence.NotLagging)
}

// AnimateForever loops anim until cancelled.
type AnimateForever struct {
	obj    world.Handle
	anim   world.Anim
	frames int
	frame  int
}

func NewAnimateForever(obj world.Handle, anim world.Anim, frames int) *AnimateForever {
	if frames < 1 {
		frames = 1
	}
	return &AnimateForever{obj: obj, anim: anim, frames: frames}
}

func (a *AnimateForever) Update(u *sequence.Update) sequence.Result {
	obj, ok := u.World.Get(a.obj)
	if !ok {
		return sequence.Done(sequence.AdvanceNow)
	}
	obj.Anim = a.anim
	obj.Frame = a.frame
	a.frame = (a.frame + 1) % a.frames
	return sequence.Running(sequence.NotLagging)
}

// Cleanup returns the object to its standing pose when the loop is stopped abruptly.
func (a *AnimateForever) Cleanup(c *sequence.Cleanup) {
	if c.World == nil {
		return
	}
	if obj, ok := c.World.Get(a.obj); ok {
		obj.Anim = world.AnimStand
		obj.Frame = 0
	}
}

// Delay waits for a number of ticks. The successor runs on the tick the wait ends.
type Delay struct {
	remaining int
}

func NewDelay(ticks int) *Delay {
	return &Delay{remaining: ticks}
}

func (d *Delay) Update(*sequence.Update) sequence.Result {
	if d.remaining <= 0 {
		return sequence.Done(sequence.AdvanceNow)
	}
	d.remaining--
	return sequence.Running(sequence.NotLagging)
}

// Func calls fn once and finishes immediately.
type Func struct {
	fn func(u *sequence.Update)
}

func NewFunc(fn func(u *sequence.Update)) *Func {
	return &Func{fn: fn}
}

func (f *Func) Update(u *sequence.Update) sequence.Result {
	if f.fn != nil {
		f.fn(u)
		f.fn = nil
	}
	return sequence.Done(sequence.AdvanceNow)
}
