package vm

import (
	"github.com/zurustar/scriptvm/pkg/program"
)

// resolveProc turns a procedure operand into an id of the running program. A proc
// may be given as a Proc value, an Int index or a String name.
func (c *Context) resolveProc(v Value) (int, program.Procedure, error) {
	prog := c.Inst().Program
	var id int
	switch v.Kind {
	case KindProc, KindInt:
		id = int(v.Int)
	case KindString:
		var ok bool
		id, ok = prog.ProcByName(v.Str)
		if !ok {
			return 0, program.Procedure{}, newError(ErrorBadProcedure, "no procedure named %q in %s", v.Str, prog.Name)
		}
	default:
		return 0, program.Procedure{}, NewBadOperandError("procedure", v)
	}
	proc, ok := prog.Proc(id)
	if !ok {
		return 0, program.Procedure{}, newError(ErrorBadProcedure, "procedure %d out of range (%d procedures) in %s", id, len(prog.Procs), prog.Name)
	}
	return id, proc, nil
}

func (c *Context) popProc() (int, program.Procedure, error) {
	v, err := c.Pop()
	if err != nil {
		return 0, program.Procedure{}, err
	}
	return c.resolveProc(v)
}

func (c *Context) jumpTo(addr int32) error {
	if addr < 0 || int(addr) >= len(c.Inst().Program.Code) {
		return newError(ErrorBadProgramCounter, "jump target %d outside code (len %d)", addr, len(c.Inst().Program.Code))
	}
	c.State.PC = int(addr)
	return nil
}

// call expects the arguments, then the argument count, then the procedure on the
// stack.
func call(c *Context) (Status, error) {
	_, proc, err := c.popProc()
	if err != nil {
		return Halt, err
	}
	argc, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	if int(argc) != proc.ArgCount {
		return Halt, newError(ErrorBadProcedure, "procedure %s takes %d arguments, called with %d", proc.Name, proc.ArgCount, argc)
	}
	ps := c.State
	if len(ps.Stack) < int(argc) {
		return Halt, NewStackUnderflowError(int(argc), len(ps.Stack))
	}
	if len(ps.Frames) >= c.vm.maxFrames {
		return Halt, NewFrameOverflowError(len(ps.Frames)+1, c.vm.maxFrames)
	}

	frame := Frame{
		ReturnPC:   ps.PC,
		Base:       len(ps.Stack) - int(argc),
		ArgCount:   int(argc),
		SavedFlags: ps.Flags,
		Proc:       proc.Name,
	}
	target, offset := c.Inst(), proc.Offset

	if proc.Flags&program.ProcImported != 0 {
		if c.Env == nil || c.Env.Exports == nil {
			return Halt, newError(ErrorBadProcedure, "imported procedure %s called without an export registry", proc.Name)
		}
		inst, id, ok := c.Env.Exports.Proc(proc.Name)
		if !ok {
			return Halt, newError(ErrorBadProcedure, "imported procedure %s is not exported by any loaded script", proc.Name)
		}
		exported, ok := inst.Program.Proc(id)
		if !ok {
			return Halt, newError(ErrorBadProcedure, "exported procedure %s has no entry in %s", proc.Name, inst.Program.Name)
		}
		if exported.ArgCount != int(argc) {
			return Halt, newError(ErrorBadProcedure, "exported procedure %s takes %d arguments, called with %d", proc.Name, exported.ArgCount, argc)
		}
		frame.Caller = c.Inst()
		target, offset = inst, exported.Offset
	}

	ps.Frames = append(ps.Frames, frame)
	ps.Inst = target
	ps.PC = offset
	c.Log.Debug("Call", "proc", proc.Name, "argc", argc, "depth", len(ps.Frames), "extern", frame.Caller != nil)
	return Continue, nil
}

// retFlags selects the behaviour of the return primitive.
type retFlags struct {
	// Value: the top of the stack is the procedure's result.
	Value bool
	// Exit: end the whole invocation instead of continuing the caller.
	Exit bool
	// Extern: the frame may belong to a call into another program.
	Extern bool
}

// ret builds the handler shared by every return opcode.
func ret(f retFlags) Handler {
	return func(c *Context) (Status, error) {
		ps := c.State
		var result Value
		if f.Value {
			v, err := c.Pop()
			if err != nil {
				return Halt, err
			}
			result = v
		}
		frame, err := ps.Frame()
		if err != nil {
			return Halt, err
		}
		fr := *frame
		if fr.Caller != nil && !f.Extern {
			return Halt, newError(ErrorBadProcedure, "local return from procedure %s entered from another program", fr.Proc)
		}

		if len(ps.Stack) > fr.Base {
			ps.Stack = ps.Stack[:fr.Base]
		}
		ps.Frames = ps.Frames[:len(ps.Frames)-1]
		ps.Flags = fr.SavedFlags
		if fr.Caller != nil {
			ps.Inst = fr.Caller
		}
		if f.Value {
			ps.Push(result)
		}

		if f.Exit || fr.ReturnPC < 0 {
			return Halt, nil
		}
		ps.PC = fr.ReturnPC
		return Continue, nil
	}
}

func exitProg(c *Context) (Status, error) {
	return Halt, nil
}

func jmp(c *Context) (Status, error) {
	addr, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	return Continue, c.jumpTo(addr)
}

// conditionalJump pops the condition, then the target, and jumps when the
// condition is false.
func conditionalJump(c *Context) (Status, error) {
	cond, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	addr, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	if !cond.Truthy() {
		return Continue, c.jumpTo(addr)
	}
	return Continue, nil
}

func ifOp(c *Context) (Status, error)    { return conditionalJump(c) }
func whileOp(c *Context) (Status, error) { return conditionalJump(c) }

// pushBase makes the top argc values the new local window of the current frame.
func pushBase(c *Context) (Status, error) {
	argc, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	frame, err := c.State.Frame()
	if err != nil {
		return Halt, err
	}
	if argc < 0 || int(argc) > len(c.State.Stack) {
		return Halt, NewStackUnderflowError(int(argc), len(c.State.Stack))
	}
	frame.SavedBase = append(frame.SavedBase, frame.Base)
	frame.Base = len(c.State.Stack) - int(argc)
	return Continue, nil
}

func popBase(c *Context) (Status, error) {
	frame, err := c.State.Frame()
	if err != nil {
		return Halt, err
	}
	n := len(frame.SavedBase)
	if n == 0 {
		return Halt, newError(ErrorBadProcedure, "PopBase without matching PushBase in %s", frame.Proc)
	}
	frame.Base = frame.SavedBase[n-1]
	frame.SavedBase = frame.SavedBase[:n-1]
	return Continue, nil
}

func popToBase(c *Context) (Status, error) {
	frame, err := c.State.Frame()
	if err != nil {
		return Halt, err
	}
	if len(c.State.Stack) > frame.Base {
		c.State.Stack = c.State.Stack[:frame.Base]
	}
	return Continue, nil
}

func checkArgCount(c *Context) (Status, error) {
	argc, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	_, proc, err := c.popProc()
	if err != nil {
		return Halt, err
	}
	if int(argc) != proc.ArgCount {
		return Halt, newError(ErrorBadProcedure, "procedure %s takes %d arguments, not %d", proc.Name, proc.ArgCount, argc)
	}
	return Continue, nil
}

func lookupStringProc(c *Context) (Status, error) {
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	if v.Kind != KindString {
		return Halt, NewBadOperandError("procedure name", v)
	}
	id, _, err := c.resolveProc(v)
	if err != nil {
		return Halt, err
	}
	c.Push(Proc(id))
	return Continue, nil
}

func fetchProcAddress(c *Context) (Status, error) {
	_, proc, err := c.popProc()
	if err != nil {
		return Halt, err
	}
	c.Push(Int(int32(proc.Offset)))
	return Continue, nil
}

func exportProc(c *Context) (Status, error) {
	id, proc, err := c.popProc()
	if err != nil {
		return Halt, err
	}
	if c.Env == nil || c.Env.Exports == nil {
		return Halt, newError(ErrorBadProcedure, "cannot export %s without an export registry", proc.Name)
	}
	c.Env.Exports.ExportProc(proc.Name, c.Inst(), id)
	return Continue, nil
}

// exportVar declares an external variable owned by the running instance.
func exportVar(c *Context) (Status, error) {
	name, err := c.PopName()
	if err != nil {
		return Halt, err
	}
	inst := c.Inst()
	if _, ok := inst.Exported[name]; !ok {
		inst.Exported[name] = Int(0)
	}
	if c.Env != nil && c.Env.Exports != nil {
		c.Env.Exports.ExportVar(name, inst)
	}
	return Continue, nil
}

// setGlobal sizes the program variable store. Values already stored survive when
// the size grows.
func setGlobal(c *Context) (Status, error) {
	size, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	if size < 0 {
		return Halt, newError(ErrorBadOperandType, "negative program variable count %d", size)
	}
	inst := c.Inst()
	vars := NewStore("program", int(size))
	if inst.ProgramVars != nil {
		for i, v := range inst.ProgramVars.Values() {
			if i < int(size) {
				vars.values[i] = v
			}
		}
	}
	inst.ProgramVars = vars
	return Continue, nil
}
