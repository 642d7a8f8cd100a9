package vm

import (
	"math/rand/v2"

	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

// UI receives the text scripts want shown to the player.
type UI interface {
	DisplayMessage(text string)
	FloatMessage(obj world.Handle, text string)
}

// MessageSource resolves message list entries.
type MessageSource interface {
	Lookup(list, num int) (string, bool)
}

// Timers schedules timed events on behalf of scripts.
type Timers interface {
	AddTimer(sid uint32, delay int, param int32)
	RemoveTimers(sid uint32)
}

// Env is everything a running script may touch outside its own instance. It is
// borrowed for the duration of one Run call.
type Env struct {
	World     *world.World
	Sequencer *sequence.Sequencer
	Dialog    *dialog.Dialog
	UI        UI
	Messages  MessageSource
	MapID     int32
	Vars      *Vars
	Exports   *Exports
	Timers    Timers
	Rand      *rand.Rand
}

func (e *Env) random(lo, hi int32) int32 {
	if hi < lo {
		lo, hi = hi, lo
	}
	span := int64(hi) - int64(lo) + 1
	if e.Rand == nil {
		return lo + int32(rand.Int64N(span))
	}
	return lo + int32(e.Rand.Int64N(span))
}
