// Package vm provides the virtual machine that executes compiled script bytecode.
// It implements a cooperative execution model with support for:
// - numeric opcode dispatch through a table built once at startup
// - a data stack of tagged values and a separate frame stack
// - local, external, program, script, map and global variable scopes
// - suspension at whitelisted opcodes and later resumption
package vm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/opcode"
	"github.com/zurustar/scriptvm/pkg/world"
)

// DefaultMaxFrames is the maximum call depth before FRAME_OVERFLOW.
const DefaultMaxFrames = 256

// Status is what a handler, and Run, report back.
type Status uint8

const (
	// Continue means the handler completed and execution goes on.
	Continue Status = iota
	// Suspend means execution pauses after the current instruction.
	Suspend
	// Halt means the invocation finished.
	Halt
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Suspend:
		return "suspend"
	case Halt:
		return "halt"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// VM executes ProgramStates. It holds no per-invocation state, so one VM serves
// every script.
type VM struct {
	table map[opcode.Opcode]Instruction

	strict    bool
	stepLimit int
	maxFrames int

	log *slog.Logger
}

// Option is a functional option for configuring the VM.
type Option func(*VM)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// WithStrictOpcodes makes an unimplemented opcode abort the invocation instead of
// being skipped.
func WithStrictOpcodes(strict bool) Option {
	return func(vm *VM) {
		vm.strict = strict
	}
}

// WithStepLimit aborts an invocation after n instructions. Zero disables the limit.
func WithStepLimit(n int) Option {
	return func(vm *VM) {
		vm.stepLimit = n
	}
}

// WithMaxFrames sets the maximum call depth.
func WithMaxFrames(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.maxFrames = n
		}
	}
}

// New creates a VM using the default instruction table.
func New(opts ...Option) *VM {
	vm := &VM{
		table:     make(map[opcode.Opcode]Instruction, len(defaultTable)),
		maxFrames: DefaultMaxFrames,
		log:       logger.For("vm"),
	}
	for op, ins := range defaultTable {
		vm.table[op] = ins
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Lookup returns the instruction registered for op.
func (vm *VM) Lookup(op opcode.Opcode) (Instruction, bool) {
	ins, ok := vm.table[op]
	return ins, ok
}

// Context is handed to every handler. It gives access to the running state and the
// borrowed environment.
type Context struct {
	vm    *VM
	State *ProgramState
	Env   *Env
	Op    opcode.Opcode
	Log   *slog.Logger
}

// Inst returns the running instance.
func (c *Context) Inst() *Instance { return c.State.Inst }

// Push pushes v.
func (c *Context) Push(v Value) { c.State.Push(v) }

// Pop pops one value.
func (c *Context) Pop() (Value, error) { return c.State.Pop() }

// PopN pops n values and returns them in push order.
func (c *Context) PopN(n int) ([]Value, error) {
	if len(c.State.Stack) < n {
		return nil, NewStackUnderflowError(n, len(c.State.Stack))
	}
	start := len(c.State.Stack) - n
	vals := make([]Value, n)
	copy(vals, c.State.Stack[start:])
	c.State.Stack = c.State.Stack[:start]
	return vals, nil
}

// PopInt pops a value with an integer view.
func (c *Context) PopInt() (int32, error) {
	v, err := c.Pop()
	if err != nil {
		return 0, err
	}
	return asInt(v)
}

// PopObject pops an object reference; Int 0 is accepted as no object.
func (c *Context) PopObject() (world.Handle, error) {
	v, err := c.Pop()
	if err != nil {
		return 0, err
	}
	return asObject(v)
}

// PopName pops an identifier given either as a string or as an index into the
// program's name pool.
func (c *Context) PopName() (string, error) {
	v, err := c.Pop()
	if err != nil {
		return "", err
	}
	return c.name(v)
}

func (c *Context) name(v Value) (string, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil
	case KindInt:
		names := c.State.Inst.Program.Names
		if v.Int < 0 || int(v.Int) >= len(names) {
			return "", newError(ErrorBadOperandType, "name index %d out of range (%d names)", v.Int, len(names))
		}
		return names[v.Int], nil
	default:
		return "", NewBadOperandError("name", v)
	}
}

func asInt(v Value) (int32, error) {
	i, ok := v.AsInt()
	if !ok {
		return 0, NewBadOperandError("integer", v)
	}
	return i, nil
}

func asObject(v Value) (world.Handle, error) {
	h, ok := v.AsObject()
	if !ok {
		return 0, NewBadOperandError("object", v)
	}
	return h, nil
}

// Run executes ps until it halts, suspends or fails. On Suspend the state is left
// positioned at the next instruction, so calling Run again resumes it.
func (vm *VM) Run(ps *ProgramState, env *Env) (Status, error) {
	if env == nil {
		env = &Env{}
	}
	c := &Context{vm: vm, State: ps, Env: env}
	c.Log = vm.log.With("sid", ps.Inst.ID, "program", ps.Inst.Program.Name)

	for {
		pc := ps.PC
		if vm.stepLimit > 0 && ps.Steps >= vm.stepLimit {
			return Halt, vm.locate(newError(ErrorStepLimit, "step limit %d reached", vm.stepLimit), ps, pc, 0)
		}
		op, err := fetchOpcode(ps)
		if err != nil {
			return Halt, vm.locate(err, ps, pc, 0)
		}
		ins, ok := vm.table[op]
		if !ok {
			return Halt, vm.locate(NewUnknownOpcodeError(op), ps, pc, op)
		}
		ps.PC += opcode.Size
		ps.Steps++
		c.Op = op

		status, err := ins.Handler(c)
		if err != nil {
			var rerr *RuntimeError
			if errors.As(err, &rerr) && !rerr.IsFatal() && !vm.strict {
				vm.locate(err, ps, pc, op)
				c.Log.Error("Unimplemented opcode skipped", "opcode", op.String(), "value", fmt.Sprintf("0x%04x", uint16(op)), "pc", pc)
				continue
			}
			return Halt, vm.locate(err, ps, pc, op)
		}

		switch status {
		case Suspend:
			if !ins.Suspends {
				return Halt, vm.locate(NewIllegalSuspendError(fmt.Sprintf("opcode %s may not suspend", op)), ps, pc, op)
			}
			return Suspend, nil
		case Halt:
			return Halt, nil
		}
	}
}

func fetchOpcode(ps *ProgramState) (opcode.Opcode, error) {
	code := ps.Inst.Program.Code
	if ps.PC < 0 || ps.PC+opcode.Size > len(code) {
		return 0, newError(ErrorBadProgramCounter, "program counter %d outside code (len %d)", ps.PC, len(code))
	}
	return opcode.Opcode(binary.BigEndian.Uint16(code[ps.PC:])), nil
}

// readLiteral returns the n literal bytes at the program counter and advances past them.
func readLiteral(ps *ProgramState, n int) ([]byte, error) {
	code := ps.Inst.Program.Code
	if ps.PC+n > len(code) {
		return nil, newError(ErrorBadProgramCounter, "literal of %d bytes at %d runs past end of code (len %d)", n, ps.PC, len(code))
	}
	b := code[ps.PC : ps.PC+n]
	ps.PC += n
	return b, nil
}

// locate fills in where a runtime error happened. Errors of other types are
// wrapped into a RuntimeError of type BAD_OPERAND_TYPE.
func (vm *VM) locate(err error, ps *ProgramState, pc int, op opcode.Opcode) error {
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		rerr = &RuntimeError{Type: ErrorBadOperandType, Message: err.Error(), PC: -1, Err: err}
		err = rerr
	}
	if rerr.PC < 0 {
		rerr.SID = ps.Inst.ID
		rerr.Program = ps.Inst.Program.Name
		rerr.Proc = ps.Inst.Program.ProcAt(pc)
		rerr.PC = pc
		rerr.Opcode = op
	}
	return err
}
