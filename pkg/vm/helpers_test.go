package vm

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/zurustar/scriptvm/pkg/asm"
	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/program"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

// newTestEnv returns an environment with an empty world, eight map and eight
// global variables.
func newTestEnv() *Env {
	return &Env{
		World:     world.New(),
		Sequencer: sequence.NewSequencer(),
		Dialog:    dialog.New(),
		Messages:  dialog.Messages{},
		Vars:      NewVars(8, 8),
		Exports:   NewExports(),
		Rand:      rand.New(rand.NewPCG(1, 2)),
	}
}

// start prepares an invocation of the program's first procedure.
func start(t *testing.T, src string, id uint32) *ProgramState {
	t.Helper()
	prog, errs := asm.Assemble("test", src)
	if len(errs) > 0 {
		t.Fatalf("assemble: %v", errs)
	}
	return startProc(t, NewInstance(id, prog, 0), 0)
}

func startProc(t *testing.T, inst *Instance, proc int) *ProgramState {
	t.Helper()
	p, ok := inst.Program.Proc(proc)
	if !ok {
		t.Fatalf("no procedure %d", proc)
	}
	return NewProgramState(inst, p.Offset, p.Name)
}

// run assembles src and runs its first procedure to completion.
func run(t *testing.T, src string, env *Env, opts ...Option) (*ProgramState, error) {
	t.Helper()
	ps := start(t, src, 1)
	status, err := New(opts...).Run(ps, env)
	if err == nil && status != Halt {
		t.Fatalf("expected Halt, got %s", status)
	}
	return ps, err
}

func mustRun(t *testing.T, src string, env *Env, opts ...Option) *ProgramState {
	t.Helper()
	ps, err := run(t, src, env, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ps
}

func assertStack(t *testing.T, ps *ProgramState, want ...Value) {
	t.Helper()
	if len(ps.Stack) != len(want) {
		t.Fatalf("stack = %#v, want %#v", ps.Stack, want)
	}
	for i := range want {
		if !ps.Stack[i].Equal(want[i]) {
			t.Fatalf("stack = %#v, want %#v", ps.Stack, want)
		}
	}
}

func assertErrorType(t *testing.T, err error, want ErrorType) *RuntimeError {
	t.Helper()
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError of type %s, got %v", want, err)
	}
	if rerr.Type != want {
		t.Fatalf("expected error type %s, got %s (%v)", want, rerr.Type, rerr)
	}
	return rerr
}

// mustProgram assembles src for tests that build instances by hand.
func mustProgram(t *testing.T, name, src string) *program.Program {
	t.Helper()
	prog, errs := asm.Assemble(name, src)
	if len(errs) > 0 {
		t.Fatalf("assemble %s: %v", name, errs)
	}
	return prog
}
