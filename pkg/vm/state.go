package vm

import (
	"slices"
)

// Frame is the activation record of one in-progress procedure call.
type Frame struct {
	// ReturnPC is where the caller continues; -1 means the frame was entered from
	// the host and returning from it ends the invocation.
	ReturnPC int
	// Base is the stack index of the first argument; locals are addressed from it.
	Base       int
	ArgCount   int
	SavedFlags int32
	// SavedBase holds bases pushed by PushBase.
	SavedBase []int
	// Caller is the instance to restore on return from a call into another program.
	Caller *Instance
	Proc   string
}

// ProgramState is the complete execution state of one invocation. A suspended
// invocation is kept as this value until it is resumed.
type ProgramState struct {
	Inst   *Instance
	Stack  []Value
	Frames []Frame
	PC     int
	Flags  int32
	Steps  int
}

// NewProgramState prepares an invocation of inst starting at pc. args become the
// entry frame's arguments.
func NewProgramState(inst *Instance, pc int, proc string, args ...Value) *ProgramState {
	ps := &ProgramState{
		Inst:  inst,
		Stack: make([]Value, 0, 16),
		PC:    pc,
	}
	ps.Stack = append(ps.Stack, args...)
	ps.Frames = append(ps.Frames, Frame{
		ReturnPC: -1,
		Base:     0,
		ArgCount: len(args),
		Proc:     proc,
	})
	return ps
}

// Push pushes v onto the data stack.
func (ps *ProgramState) Push(v Value) {
	ps.Stack = append(ps.Stack, v)
}

// Pop removes and returns the top of the data stack.
func (ps *ProgramState) Pop() (Value, error) {
	n := len(ps.Stack)
	if n == 0 {
		return Value{}, NewStackUnderflowError(1, 0)
	}
	v := ps.Stack[n-1]
	ps.Stack = ps.Stack[:n-1]
	return v, nil
}

// Top returns the top of the data stack without removing it.
func (ps *ProgramState) Top() (Value, error) {
	if len(ps.Stack) == 0 {
		return Value{}, NewStackUnderflowError(1, 0)
	}
	return ps.Stack[len(ps.Stack)-1], nil
}

// Frame returns the current activation record.
func (ps *ProgramState) Frame() (*Frame, error) {
	if len(ps.Frames) == 0 {
		return nil, NewRuntimeError(ErrorBadProcedure, "no active frame")
	}
	return &ps.Frames[len(ps.Frames)-1], nil
}

// Clone returns a deep copy of the state. Instances are shared.
func (ps *ProgramState) Clone() *ProgramState {
	c := *ps
	c.Stack = slices.Clone(ps.Stack)
	c.Frames = make([]Frame, len(ps.Frames))
	for i, f := range ps.Frames {
		f.SavedBase = slices.Clone(f.SavedBase)
		c.Frames[i] = f
	}
	return &c
}
