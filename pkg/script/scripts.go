// Package script owns the loaded script instances. It runs their predefined
// procedures on behalf of the game loop, keeps the one suspended invocation and
// fires timed events.
package script

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/program"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/vm"
	"github.com/zurustar/scriptvm/pkg/world"
)

// ErrNoSuspendedScript is returned by Resume when nothing is waiting.
var ErrNoSuspendedScript = vm.NewRuntimeError(vm.ErrorNotSuspended, "no suspended script")

// Context is what an invocation borrows from the caller for its duration.
type Context struct {
	World     *world.World
	Sequencer *sequence.Sequencer
	Dialog    *dialog.Dialog
	UI        vm.UI
	Messages  vm.MessageSource
	MapID     int32
	Rand      *rand.Rand
}

// Result describes how an invocation ended.
type Result struct {
	// Suspended is set when the script waits for the player, typically a dialog
	// choice. The state is kept until Resume.
	Suspended bool
	// ScriptOverrides is set when the script asked to replace the engine's
	// default handling of the event.
	ScriptOverrides bool
}

// AssertNoSuspend panics if the invocation suspended. It guards callers that
// cannot continue a script later.
func (r Result) AssertNoSuspend() Result {
	if r.Suspended {
		panic(vm.NewIllegalSuspendError("script suspended where suspension is not allowed"))
	}
	return r
}

type suspended struct {
	sid   SID
	state *vm.ProgramState
}

type timer struct {
	sid   SID
	due   uint64
	param int32
}

// Scripts is the registry of script instances.
type Scripts struct {
	vm        *vm.VM
	instances map[SID]*vm.Instance
	mapSID    SID
	hasMap    bool

	vars    *vm.Vars
	exports *vm.Exports

	suspended *suspended
	timers    []timer
	tick      uint64

	log *slog.Logger
}

// Option is a functional option for configuring Scripts.
type Option func(*Scripts)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scripts) {
		s.log = log
	}
}

// WithVM sets the interpreter used for all invocations.
func WithVM(machine *vm.VM) Option {
	return func(s *Scripts) {
		s.vm = machine
	}
}

// WithVarCounts sizes the map and global variable stores.
func WithVarCounts(mapVars, globalVars int) Option {
	return func(s *Scripts) {
		s.vars = vm.NewVars(mapVars, globalVars)
	}
}

// New creates an empty registry.
func New(opts ...Option) *Scripts {
	s := &Scripts{
		instances: make(map[SID]*vm.Instance),
		vars:      vm.NewVars(0, 0),
		exports:   vm.NewExports(),
		log:       logger.For("script"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.vm == nil {
		s.vm = vm.New(vm.WithLogger(s.log))
	}
	return s
}

// Vars returns the map and global variable stores.
func (s *Scripts) Vars() *vm.Vars { return s.vars }

// Has reports whether sid is loaded.
func (s *Scripts) Has(sid SID) bool {
	_, ok := s.instances[sid]
	return ok
}

// Instance returns the instance loaded as sid.
func (s *Scripts) Instance(sid SID) (*vm.Instance, bool) {
	inst, ok := s.instances[sid]
	return inst, ok
}

// SIDs returns the loaded script ids in ascending order.
func (s *Scripts) SIDs() []SID {
	sids := make([]SID, 0, len(s.instances))
	for sid := range s.instances {
		sids = append(sids, sid)
	}
	slices.Sort(sids)
	return sids
}

// SetMapScript marks sid as the script of the current map.
func (s *Scripts) SetMapScript(sid SID) {
	s.mapSID, s.hasMap = sid, true
}

// MapSID returns the map script, if one is set.
func (s *Scripts) MapSID() (SID, bool) {
	return s.mapSID, s.hasMap
}

// Load creates an instance of prog as sid, owned by self, and runs the
// program's initialization code. The init code must not suspend.
func (s *Scripts) Load(sid SID, prog *program.Program, self world.Handle, ctx *Context) error {
	if _, ok := s.instances[sid]; ok {
		return fmt.Errorf("script %s already loaded", sid)
	}
	inst := vm.NewInstance(uint32(sid), prog, self)
	s.instances[sid] = inst
	if ctx != nil && ctx.World != nil && self != 0 {
		if obj, ok := ctx.World.Get(self); ok {
			obj.Script = uint32(sid)
		}
	}
	s.log.Debug("Script loaded", "sid", sid, "program", prog.Name, "self", self)

	if prog.Init < 0 {
		inst.Initialized = true
		return nil
	}
	res, err := s.run(sid, vm.NewProgramState(inst, prog.Init, "init"), ctx)
	if err != nil {
		return fmt.Errorf("init %s: %w", sid, err)
	}
	res.AssertNoSuspend()
	inst.Initialized = true
	return nil
}

// Unload drops sid along with its exports, its timers and any suspended state.
func (s *Scripts) Unload(sid SID) {
	if inst, ok := s.instances[sid]; ok {
		s.exports.Drop(inst)
	}
	delete(s.instances, sid)
	s.RemoveTimers(uint32(sid))
	if s.suspended != nil && s.suspended.sid == sid {
		s.suspended = nil
	}
}

// ExecutePredefinedProc runs the procedure bound to hook. A script without
// such a procedure is not an error.
func (s *Scripts) ExecutePredefinedProc(sid SID, hook program.Hook, ctx *Context) (Result, error) {
	inst, err := s.instance(sid)
	if err != nil {
		return Result{}, err
	}
	id, ok := inst.Program.ProcByHook(hook)
	if !ok {
		return Result{}, nil
	}
	return s.ExecuteProc(sid, id, ctx)
}

// ExecuteProc runs procedure id of sid with no arguments.
func (s *Scripts) ExecuteProc(sid SID, id int, ctx *Context) (Result, error) {
	inst, err := s.instance(sid)
	if err != nil {
		return Result{}, err
	}
	proc, ok := inst.Program.Proc(id)
	if !ok {
		return Result{}, vm.NewRuntimeError(vm.ErrorBadProcedure,
			fmt.Sprintf("script %s has no procedure %d", sid, id))
	}
	if proc.Flags&program.ProcImported != 0 {
		return Result{}, vm.NewRuntimeError(vm.ErrorBadProcedure,
			fmt.Sprintf("procedure %s of %s is imported and has no body", proc.Name, sid))
	}
	if proc.ArgCount != 0 {
		return Result{}, vm.NewRuntimeError(vm.ErrorBadProcedure,
			fmt.Sprintf("procedure %s of %s takes %d argument(s), called with none", proc.Name, sid, proc.ArgCount))
	}
	s.log.Debug("Executing procedure", "sid", sid, "proc", proc.Name)
	inst.ScriptOverrides = false
	return s.run(sid, vm.NewProgramState(inst, proc.Offset, proc.Name), ctx)
}

// ExecuteProcs runs hook for every script accepted by filter, in SID order.
// A failing script is logged and skipped.
func (s *Scripts) ExecuteProcs(hook program.Hook, ctx *Context, filter func(SID) bool) {
	for _, sid := range s.SIDs() {
		if filter != nil && !filter(sid) {
			continue
		}
		if _, err := s.ExecutePredefinedProc(sid, hook, ctx); err != nil {
			s.log.Error("Script failed", "sid", sid, "hook", hook.String(), "error", err)
		}
	}
}

// ExecuteMapProcs runs hook for every script except the map script. Map wide
// hooks must not suspend.
func (s *Scripts) ExecuteMapProcs(hook program.Hook, ctx *Context) {
	for _, sid := range s.SIDs() {
		if s.hasMap && sid == s.mapSID {
			continue
		}
		res, err := s.ExecutePredefinedProc(sid, hook, ctx)
		if err != nil {
			s.log.Error("Script failed", "sid", sid, "hook", hook.String(), "error", err)
			continue
		}
		res.AssertNoSuspend()
	}
}

// EnterMap runs the map entry sequence: MapEnter of the map script first, then
// Start of every non-system script, then MapEnter of the rest.
func (s *Scripts) EnterMap(ctx *Context) {
	if sid, ok := s.MapSID(); ok {
		res, err := s.ExecutePredefinedProc(sid, program.MapEnter, ctx)
		if err != nil {
			s.log.Error("Map script failed", "sid", sid, "error", err)
		}
		res.AssertNoSuspend()
	}
	s.ExecuteProcs(program.Start, ctx, func(sid SID) bool { return sid.Kind() != KindSystem })
	s.ExecuteMapProcs(program.MapEnter, ctx)
}

// CanResume reports whether an invocation is waiting to be resumed.
func (s *Scripts) CanResume() bool { return s.suspended != nil }

// Suspended returns the SID of the waiting invocation.
func (s *Scripts) Suspended() (SID, bool) {
	if s.suspended == nil {
		return 0, false
	}
	return s.suspended.sid, true
}

// Resume continues the suspended invocation. result, if not nil, is pushed
// before execution continues.
func (s *Scripts) Resume(ctx *Context, result *vm.Value) (Result, error) {
	if s.suspended == nil {
		return Result{}, ErrNoSuspendedScript
	}
	susp := s.suspended
	s.suspended = nil
	if result != nil {
		susp.state.Push(*result)
	}
	s.log.Debug("Resuming script", "sid", susp.sid, "pc", susp.state.PC)
	return s.run(susp.sid, susp.state, ctx)
}

func (s *Scripts) instance(sid SID) (*vm.Instance, error) {
	inst, ok := s.instances[sid]
	if !ok {
		return nil, vm.NewRuntimeError(vm.ErrorUnknownScript, fmt.Sprintf("no script %s", sid))
	}
	return inst, nil
}

func (s *Scripts) env(ctx *Context) *vm.Env {
	env := &vm.Env{
		Vars:    s.vars,
		Exports: s.exports,
		Timers:  s,
	}
	if ctx != nil {
		env.World = ctx.World
		env.Sequencer = ctx.Sequencer
		env.Dialog = ctx.Dialog
		env.UI = ctx.UI
		env.Messages = ctx.Messages
		env.MapID = ctx.MapID
		env.Rand = ctx.Rand
	}
	return env
}

func (s *Scripts) run(sid SID, ps *vm.ProgramState, ctx *Context) (Result, error) {
	status, err := s.vm.Run(ps, s.env(ctx))
	res := Result{ScriptOverrides: ps.Inst.ScriptOverrides}
	if err != nil {
		return res, err
	}
	if status != vm.Suspend {
		return res, nil
	}
	if s.suspended != nil {
		return res, vm.NewIllegalSuspendError(
			fmt.Sprintf("script %s suspended while %s is already suspended", sid, s.suspended.sid))
	}
	s.suspended = &suspended{sid: sid, state: ps}
	res.Suspended = true
	return res, nil
}

// AddTimer schedules a TimedEvent for sid delay ticks from now.
func (s *Scripts) AddTimer(sid uint32, delay int, param int32) {
	if delay < 0 {
		delay = 0
	}
	s.timers = append(s.timers, timer{sid: SID(sid), due: s.tick + uint64(delay), param: param})
}

// RemoveTimers cancels every pending timer of sid.
func (s *Scripts) RemoveTimers(sid uint32) {
	s.timers = slices.DeleteFunc(s.timers, func(t timer) bool { return t.sid == SID(sid) })
}

// PendingTimers returns the number of scheduled timers.
func (s *Scripts) PendingTimers() int { return len(s.timers) }

// UpdateTimers advances the timer clock to tick and fires every timer that came
// due, earliest first. Timers added while firing wait for a later update.
func (s *Scripts) UpdateTimers(tick uint64, ctx *Context) {
	s.tick = tick
	var due []timer
	s.timers = slices.DeleteFunc(s.timers, func(t timer) bool {
		if t.due <= tick {
			due = append(due, t)
			return true
		}
		return false
	})
	slices.SortStableFunc(due, func(a, b timer) int { return cmp.Compare(a.due, b.due) })

	for _, t := range due {
		inst, ok := s.instances[t.sid]
		if !ok {
			continue
		}
		inst.FixedParam = t.param
		if _, err := s.ExecutePredefinedProc(t.sid, program.TimedEvent, ctx); err != nil {
			s.log.Error("Timed event failed", "sid", t.sid, "param", t.param, "error", err)
		}
	}
}

// Reset unloads every script and clears map state. Global variables survive.
func (s *Scripts) Reset() {
	clear(s.instances)
	s.hasMap = false
	s.suspended = nil
	s.timers = nil
	s.exports.Reset()
	s.vars.Map = vm.NewStore("map", s.vars.Map.Len())
}

// IsUnknownScript reports whether err is caused by a missing SID.
func IsUnknownScript(err error) bool {
	var rerr *vm.RuntimeError
	return errors.As(err, &rerr) && rerr.Type == vm.ErrorUnknownScript
}
