// Package program defines the compiled script unit consumed by the VM.
// A Program is produced by an external compiler or loader (pkg/asm in this repository)
// and is immutable once built.
package program

import (
	"fmt"
	"sort"
)

// Hook identifies a predefined procedure that the driver invokes at a fixed
// lifecycle moment. The numbering follows the procedure slots of the bytecode format.
type Hook int

const (
	NoHook Hook = iota - 1
	NoProc
	Start
	Spatial
	Description
	Pickup
	Drop
	Use
	UseObjOn
	UseSkillOn
	_
	_
	Talk
	Critter
	Combat
	Damage
	MapEnter
	MapExit
	Create
	Destroy
	_
	_
	LookAt
	TimedEvent
	MapUpdate
)

var hookNames = map[Hook]string{
	NoProc:      "no_p_proc",
	Start:       "start",
	Spatial:     "spatial_p_proc",
	Description: "description_p_proc",
	Pickup:      "pickup_p_proc",
	Drop:        "drop_p_proc",
	Use:         "use_p_proc",
	UseObjOn:    "use_obj_on_p_proc",
	UseSkillOn:  "use_skill_on_p_proc",
	Talk:        "talk_p_proc",
	Critter:     "critter_p_proc",
	Combat:      "combat_p_proc",
	Damage:      "damage_p_proc",
	MapEnter:    "map_enter_p_proc",
	MapExit:     "map_exit_p_proc",
	Create:      "create_p_proc",
	Destroy:     "destroy_p_proc",
	LookAt:      "look_at_p_proc",
	TimedEvent:  "timed_event_p_proc",
	MapUpdate:   "map_update_p_proc",
}

func (h Hook) String() string {
	if name, ok := hookNames[h]; ok {
		return name
	}
	return fmt.Sprintf("Hook(%d)", int(h))
}

// ParseHook accepts either the full procedure name ("talk_p_proc") or its short
// form ("talk").
func ParseHook(name string) (Hook, error) {
	for h, n := range hookNames {
		if n == name || n == name+"_p_proc" {
			return h, nil
		}
	}
	return NoHook, fmt.Errorf("unknown predefined procedure: %q", name)
}

// ProcFlags carries per-procedure attributes from the procedure table.
type ProcFlags uint32

const (
	// ProcImported marks a procedure whose body lives in another program and is
	// resolved by name through the export registry at call time.
	ProcImported ProcFlags = 1 << iota
	// ProcExported marks a procedure other programs may call.
	ProcExported
	// ProcCritical marks a procedure that runs inside a critical section.
	ProcCritical
)

// Procedure is one entry of the procedure table.
type Procedure struct {
	Name     string
	Offset   int
	ArgCount int
	Hook     Hook
	Flags    ProcFlags
}

// Program is an immutable compiled script.
type Program struct {
	Name string
	Code []byte

	// Procs is the procedure table; a procedure id is an index into it.
	Procs []Procedure

	// Names is the identifier pool referenced by procedures and exported variables.
	Names []string

	// Init is the offset of the initialization code, or -1 if the program has none.
	Init int

	// LocalVarCount is the number of script-local variables an instance declares.
	LocalVarCount int

	hooks map[Hook]int
}

// New validates the procedure table against code and returns an immutable Program.
func New(name string, code []byte, procs []Procedure, names []string, init, localVars int) (*Program, error) {
	p := &Program{
		Name:          name,
		Code:          code,
		Procs:         procs,
		Names:         names,
		Init:          init,
		LocalVarCount: localVars,
		hooks:         make(map[Hook]int),
	}
	if init >= len(code) || init < -1 {
		return nil, fmt.Errorf("program %s: init offset %d outside code (len %d)", name, init, len(code))
	}
	if localVars < 0 {
		return nil, fmt.Errorf("program %s: negative local variable count %d", name, localVars)
	}
	for i, proc := range procs {
		if proc.ArgCount < 0 {
			return nil, fmt.Errorf("program %s: procedure %s has negative argument count", name, proc.Name)
		}
		if proc.Flags&ProcImported == 0 && (proc.Offset < 0 || proc.Offset >= len(code)) {
			return nil, fmt.Errorf("program %s: procedure %s offset %d outside code (len %d)", name, proc.Name, proc.Offset, len(code))
		}
		if proc.Hook == NoHook {
			continue
		}
		if _, dup := p.hooks[proc.Hook]; dup {
			return nil, fmt.Errorf("program %s: duplicate predefined procedure %s", name, proc.Hook)
		}
		p.hooks[proc.Hook] = i
	}
	return p, nil
}

// ProcByHook returns the id of the procedure bound to a predefined hook.
func (p *Program) ProcByHook(h Hook) (int, bool) {
	id, ok := p.hooks[h]
	return id, ok
}

// ProcByName returns the id of the named procedure.
func (p *Program) ProcByName(name string) (int, bool) {
	for i, proc := range p.Procs {
		if proc.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Proc returns the procedure with the given id.
func (p *Program) Proc(id int) (Procedure, bool) {
	if id < 0 || id >= len(p.Procs) {
		return Procedure{}, false
	}
	return p.Procs[id], true
}

// ProcAt returns the name of the procedure whose body contains pc. It is used for
// diagnostics only, so a best-effort answer is good enough.
func (p *Program) ProcAt(pc int) string {
	type span struct {
		offset int
		name   string
	}
	spans := make([]span, 0, len(p.Procs)+1)
	if p.Init >= 0 {
		spans = append(spans, span{p.Init, "<init>"})
	}
	for _, proc := range p.Procs {
		if proc.Flags&ProcImported == 0 {
			spans = append(spans, span{proc.Offset, proc.Name})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].offset < spans[j].offset })
	name := "<unknown>"
	for _, s := range spans {
		if s.offset > pc {
			break
		}
		name = s.name
	}
	return name
}
