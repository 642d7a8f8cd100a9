package vm

import (
	"github.com/zurustar/scriptvm/pkg/program"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

// Instance is a loaded program bound to the object that owns it. It carries the
// stores whose lifetime is the program instance.
type Instance struct {
	ID      uint32
	Program *program.Program

	// Exported holds the variables declared with ExportVar.
	Exported map[string]Value
	// ProgramVars is sized by SetGlobal; nil until then.
	ProgramVars *Store
	// LocalVars are the script's persistent local variables.
	LocalVars *Store

	Self   world.Handle
	Source world.Handle
	Target world.Handle

	// FixedParam is the parameter of the timer event being handled.
	FixedParam int32
	// ScriptOverrides is set by the ScriptOverrides opcode and cleared per invocation.
	ScriptOverrides bool

	// Initialized is set once the program's init code ran.
	Initialized bool

	anim *animBatch
}

// NewInstance creates an instance of prog owned by self.
func NewInstance(id uint32, prog *program.Program, self world.Handle) *Instance {
	return &Instance{
		ID:        id,
		Program:   prog,
		Exported:  make(map[string]Value),
		LocalVars: NewStore("script", prog.LocalVarCount),
		Self:      self,
	}
}

// animBatch collects reg_anim requests between BEGIN and END.
type animBatch struct {
	order []world.Handle
	seqs  map[world.Handle][]sequence.Sequence
}

func newAnimBatch() *animBatch {
	return &animBatch{seqs: make(map[world.Handle][]sequence.Sequence)}
}

func (b *animBatch) add(obj world.Handle, seq sequence.Sequence) {
	if _, ok := b.seqs[obj]; !ok {
		b.order = append(b.order, obj)
	}
	b.seqs[obj] = append(b.seqs[obj], seq)
}

// Exports is the registry of procedures and variables that programs share by name.
type Exports struct {
	procs map[string]exportedProc
	vars  map[string]*Instance
}

type exportedProc struct {
	inst *Instance
	id   int
}

// NewExports creates an empty registry.
func NewExports() *Exports {
	return &Exports{
		procs: make(map[string]exportedProc),
		vars:  make(map[string]*Instance),
	}
}

// ExportProc makes procedure id of inst callable from other programs.
func (e *Exports) ExportProc(name string, inst *Instance, id int) {
	e.procs[name] = exportedProc{inst: inst, id: id}
}

// Proc resolves an exported procedure.
func (e *Exports) Proc(name string) (*Instance, int, bool) {
	p, ok := e.procs[name]
	return p.inst, p.id, ok
}

// ExportVar records inst as the owner of the exported variable name.
func (e *Exports) ExportVar(name string, inst *Instance) {
	e.vars[name] = inst
}

// VarOwner returns the instance that exported name.
func (e *Exports) VarOwner(name string) (*Instance, bool) {
	inst, ok := e.vars[name]
	return inst, ok
}

// Drop removes every procedure and variable exported by inst.
func (e *Exports) Drop(inst *Instance) {
	for name, p := range e.procs {
		if p.inst == inst {
			delete(e.procs, name)
		}
	}
	for name, owner := range e.vars {
		if owner == inst {
			delete(e.vars, name)
		}
	}
}

// Reset clears the registry.
func (e *Exports) Reset() {
	clear(e.procs)
	clear(e.vars)
}
