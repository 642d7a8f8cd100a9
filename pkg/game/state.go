// Package game drives the simulation: it owns the world, the sequencer and the
// script orchestrator, turns player actions into sequences and script calls, and
// advances everything one tick at a time.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/zurustar/scriptvm/pkg/action"
	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/program"
	"github.com/zurustar/scriptvm/pkg/script"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/vm"
	"github.com/zurustar/scriptvm/pkg/world"
)

// MapScriptSID is the SID the map script is loaded under.
var MapScriptSID = script.NewSID(script.KindSystem, 0)

var (
	// ErrNoDude is returned by actions that need the player's object.
	ErrNoDude = errors.New("no dude object")
	// ErrDialogPending is returned by actions that can't run while a script
	// waits for a dialog pick.
	ErrDialogPending = errors.New("dialog pending")
)

// catalogEntry is a script that create_object_sid may attach to new objects.
type catalogEntry struct {
	prog *program.Program
	kind script.Kind
}

// State is one running map.
type State struct {
	world     *world.World
	sequencer *sequence.Sequencer
	dialog    *dialog.Dialog
	scripts   *script.Scripts
	messages  vm.MessageSource
	ui        *MessageLog
	ctx       *script.Context

	time       PausableTime
	userPaused bool
	lag        sequence.Lag

	mapID   int32
	catalog map[uint32]catalogEntry
	nextID  map[script.Kind]uint32
	events  []world.Event

	log *slog.Logger
}

// Option is a functional option for configuring the State.
type Option func(*State)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *State) {
		s.log = log
	}
}

// WithScripts uses scripts as the orchestrator instead of a default one.
func WithScripts(scripts *script.Scripts) Option {
	return func(s *State) {
		s.scripts = scripts
	}
}

// WithWorld uses w instead of an empty world.
func WithWorld(w *world.World) Option {
	return func(s *State) {
		s.world = w
	}
}

// WithMessages sets the message lists scripts read from.
func WithMessages(m vm.MessageSource) Option {
	return func(s *State) {
		s.messages = m
	}
}

// WithMapID sets the map number reported to scripts.
func WithMapID(id int32) Option {
	return func(s *State) {
		s.mapID = id
	}
}

// WithSeed seeds the random number generator scripts use.
func WithSeed(seed uint64) Option {
	return func(s *State) {
		s.ctx.Rand = rand.New(rand.NewPCG(seed, seed^0x5eed))
	}
}

// New creates a map state with an empty world.
func New(opts ...Option) *State {
	s := &State{
		sequencer: sequence.NewSequencer(),
		dialog:    dialog.New(),
		messages:  dialog.Messages{},
		catalog:   make(map[uint32]catalogEntry),
		nextID:    make(map[script.Kind]uint32),
		log:       logger.For("game"),
		ctx:       &script.Context{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.world == nil {
		s.world = world.New()
	}
	if s.scripts == nil {
		s.scripts = script.New()
	}
	s.ui = NewMessageLog(DefaultLogSize, s.time.Tick)

	s.ctx.World = s.world
	s.ctx.Sequencer = s.sequencer
	s.ctx.Dialog = s.dialog
	s.ctx.UI = s.ui
	s.ctx.Messages = s.messages
	s.ctx.MapID = s.mapID
	if s.ctx.Rand == nil {
		s.ctx.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

func (s *State) World() *world.World            { return s.world }
func (s *State) Sequencer() *sequence.Sequencer { return s.sequencer }
func (s *State) Dialog() *dialog.Dialog         { return s.dialog }
func (s *State) Scripts() *script.Scripts       { return s.scripts }
func (s *State) MessageLog() *MessageLog        { return s.ui }
func (s *State) Context() *script.Context       { return s.ctx }
func (s *State) Time() *PausableTime            { return &s.time }
func (s *State) MapID() int32                   { return s.mapID }

// Lag reports whether any sequence fell behind on the last tick.
func (s *State) Lag() sequence.Lag { return s.lag }

// Events returns the world events of the last tick.
func (s *State) Events() []world.Event { return s.events }

// UserPaused reports whether the player paused the game.
func (s *State) UserPaused() bool { return s.userPaused }

// TogglePause pauses or unpauses the game on the player's request.
func (s *State) TogglePause() {
	s.userPaused = !s.userPaused
	s.log.Debug("Pause toggled", "paused", s.userPaused)
}

// AddToCatalog registers prog as script number n for objects created by scripts.
func (s *State) AddToCatalog(n uint32, prog *program.Program, kind script.Kind) {
	s.catalog[n] = catalogEntry{prog: prog, kind: kind}
}

func (s *State) allocSID(kind script.Kind) script.SID {
	s.nextID[kind]++
	return script.NewSID(kind, s.nextID[kind])
}

// AttachScript loads prog as a new script of kind owned by obj.
func (s *State) AttachScript(obj world.Handle, prog *program.Program, kind script.Kind) (script.SID, error) {
	if _, ok := s.world.Get(obj); !ok {
		return 0, fmt.Errorf("attach %s: no object %d", prog.Name, obj)
	}
	sid := s.allocSID(kind)
	if err := s.scripts.Load(sid, prog, obj, s.ctx); err != nil {
		return 0, err
	}
	return sid, nil
}

// LoadMapScript loads prog as the map script.
func (s *State) LoadMapScript(prog *program.Program) error {
	if err := s.scripts.Load(MapScriptSID, prog, 0, s.ctx); err != nil {
		return err
	}
	s.scripts.SetMapScript(MapScriptSID)
	return nil
}

// EnterMap runs the map entry hooks of every loaded script.
func (s *State) EnterMap() {
	s.scripts.EnterMap(s.ctx)
	s.attachSpawned()
}

// scriptOf returns the script attached to obj.
func (s *State) scriptOf(obj world.Handle) (script.SID, bool) {
	o, ok := s.world.Get(obj)
	if !ok || o.Script == 0 {
		return 0, false
	}
	sid := script.SID(o.Script)
	return sid, s.scripts.Has(sid)
}

// attachSpawned loads scripts for objects created by create_object_sid. Those
// carry a catalog number in Object.Script until their script is loaded.
func (s *State) attachSpawned() {
	for _, h := range s.world.Handles() {
		obj, _ := s.world.Get(h)
		if obj.Script == 0 || s.scripts.Has(script.SID(obj.Script)) {
			continue
		}
		entry, ok := s.catalog[obj.Script]
		if !ok {
			s.log.Warn("Unknown script number", "object", h, "script", obj.Script)
			obj.Script = 0
			continue
		}
		sid, err := s.AttachScript(h, entry.prog, entry.kind)
		if err != nil {
			s.log.Error("Failed to attach script", "object", h, "program", entry.prog.Name, "error", err)
			obj.Script = 0
			continue
		}
		if _, err := s.scripts.ExecutePredefinedProc(sid, program.Start, s.ctx); err != nil {
			s.log.Error("Script failed", "sid", sid, "hook", program.Start.String(), "error", err)
		}
	}
}

// unloadDestroyed drops the scripts owned by destroyed objects.
func (s *State) unloadDestroyed(events []world.Event) {
	for _, e := range events {
		if e.Kind != world.EventDestroyed {
			continue
		}
		for _, sid := range s.scripts.SIDs() {
			if inst, ok := s.scripts.Instance(sid); ok && inst.Self == e.Object {
				s.log.Debug("Unloading script of destroyed object", "sid", sid, "object", e.Object)
				s.scripts.Unload(sid)
			}
		}
	}
}

// Walk sends the dude to dst. run selects the running animation. It reports
// whether a path was found.
func (s *State) Walk(dst int, run bool) (bool, error) {
	dude := s.world.Dude()
	if _, ok := s.world.Get(dude); !ok {
		return false, ErrNoDude
	}
	path := s.world.PathFor(dude, dst)
	if len(path) == 0 {
		s.sequencer.Cancel(dude)
		return false, nil
	}
	anim, ticksPerStep := world.AnimWalk, action.DefaultTicksPerStep
	if run {
		anim, ticksPerStep = world.AnimRunning, 1
	}
	s.sequencer.Start(dude, sequence.NewThen(
		action.NewMove(dude, anim, path, ticksPerStep),
		action.NewStand(dude),
	))
	return true, nil
}

// Rotate stops obj and turns it one direction clockwise.
func (s *State) Rotate(obj world.Handle) {
	s.sequencer.Cancel(obj)
	if o, ok := s.world.Get(obj); ok {
		o.Direction = o.Direction.RotateCW()
	}
}

// DefaultAction is what picking obj does: the dude rotates, others are talked to.
func (s *State) DefaultAction(obj world.Handle) (script.Result, error) {
	if obj == s.world.Dude() {
		s.Rotate(obj)
		return script.Result{}, nil
	}
	return s.Talk(obj)
}

// Talk stops every object and runs the talk procedure of obj's script. The
// script may suspend waiting for a dialog pick.
func (s *State) Talk(obj world.Handle) (script.Result, error) {
	if s.scripts.CanResume() {
		return script.Result{}, ErrDialogPending
	}
	s.sequencer.CancelAll()
	s.sequencer.Cleanup(&sequence.Cleanup{World: s.world})

	sid, ok := s.scriptOf(obj)
	if !ok {
		return script.Result{}, nil
	}
	res, err := s.scripts.ExecutePredefinedProc(sid, program.Talk, s.ctx)
	if err != nil {
		return res, err
	}
	s.attachSpawned()
	return res, nil
}

// Look describes obj. The script's look_at procedure may replace the default
// description.
func (s *State) Look(obj world.Handle) error {
	o, ok := s.world.Get(obj)
	if !ok {
		return fmt.Errorf("look: no object %d", obj)
	}
	if s.scripts.CanResume() {
		return ErrDialogPending
	}
	if sid, ok := s.scriptOf(obj); ok {
		res, err := s.scripts.ExecutePredefinedProc(sid, program.LookAt, s.ctx)
		if err != nil {
			return err
		}
		res.AssertNoSuspend()
		if res.ScriptOverrides {
			return nil
		}
	}
	s.ui.DisplayMessage("You see: " + o.Name)
	return nil
}

// Pick selects dialog option i. The option's procedure runs first; once no
// options remain the suspended talk procedure is resumed.
func (s *State) Pick(i int) error {
	opt, err := s.dialog.Option(i)
	if err != nil {
		return err
	}
	sid := script.SID(s.dialog.SID())
	s.dialog.ClearOptions()

	finished := true
	if opt.Proc != dialog.NoProc {
		res, err := s.scripts.ExecuteProc(sid, opt.Proc, s.ctx)
		if err != nil {
			s.log.Error("Dialog option failed", "sid", sid, "proc", opt.Proc, "error", err)
		} else {
			res.AssertNoSuspend()
			finished = s.dialog.IsEmpty()
		}
	}
	if !finished {
		return nil
	}

	if s.scripts.CanResume() {
		res, err := s.scripts.Resume(s.ctx, nil)
		if err != nil {
			s.log.Error("Resumed script failed", "sid", sid, "error", err)
		}
		res.AssertNoSuspend()
	}
	if s.dialog.Active() && s.dialog.IsEmpty() {
		s.dialog.End()
	}
	s.attachSpawned()
	return nil
}

// Update advances the simulation by one tick. The clock stops while the player
// paused or a script waits for a dialog pick; sequences are then cleaned up
// instead of updated.
func (s *State) Update() {
	s.time.SetPaused(s.userPaused || s.scripts.CanResume())
	if s.time.IsPaused() {
		s.sequencer.Cleanup(&sequence.Cleanup{World: s.world})
		s.lag = sequence.NotLagging
		s.events = nil
		return
	}

	tick := s.time.Advance(1)
	s.world.GameTime++
	s.scripts.UpdateTimers(tick, s.ctx)
	s.lag = s.sequencer.Update(&sequence.Update{Tick: tick, World: s.world})

	s.events = s.world.DrainEvents()
	s.unloadDestroyed(s.events)
	s.attachSpawned()
}
