package vm

import (
	"testing"

	"github.com/zurustar/scriptvm/pkg/opcode"
	"github.com/zurustar/scriptvm/pkg/program"
)

// TestNewVM tests the VM constructor with various options.
func TestNewVM(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		vm := New()
		if vm.strict || vm.stepLimit != 0 || vm.maxFrames != DefaultMaxFrames {
			t.Errorf("unexpected defaults: strict=%v stepLimit=%d maxFrames=%d", vm.strict, vm.stepLimit, vm.maxFrames)
		}
	})

	t.Run("applies options", func(t *testing.T) {
		vm := New(WithStrictOpcodes(true), WithStepLimit(10), WithMaxFrames(3))
		if !vm.strict || vm.stepLimit != 10 || vm.maxFrames != 3 {
			t.Errorf("options not applied: strict=%v stepLimit=%d maxFrames=%d", vm.strict, vm.stepLimit, vm.maxFrames)
		}
	})

	t.Run("ignores non-positive frame limit", func(t *testing.T) {
		if vm := New(WithMaxFrames(0)); vm.maxFrames != DefaultMaxFrames {
			t.Errorf("expected default frame limit, got %d", vm.maxFrames)
		}
	})

	t.Run("table is private to each VM", func(t *testing.T) {
		a, b := New(), New()
		a.table[opcode.Noop8000] = Instruction{Op: opcode.Noop8000, Handler: exitProg}
		if ins, _ := b.Lookup(opcode.Noop8000); ins.Handler == nil {
			t.Fatal("missing noop")
		}
		if _, ok := defaultTable[opcode.Noop8000]; !ok {
			t.Fatal("default table lost an entry")
		}
	})
}

func TestInstructionTable(t *testing.T) {
	t.Run("every opcode has an instruction", func(t *testing.T) {
		vm := New()
		for _, op := range opcode.All() {
			ins, ok := vm.Lookup(op)
			if !ok || ins.Handler == nil || ins.Op != op {
				t.Errorf("no instruction for %s", op)
			}
		}
		if len(vm.table) != len(opcode.All()) {
			t.Errorf("table has %d entries, want %d", len(vm.table), len(opcode.All()))
		}
	})

	t.Run("only gsay_end may suspend", func(t *testing.T) {
		for op, ins := range defaultTable {
			if ins.Suspends != (op == opcode.GsayEnd) {
				t.Errorf("%s: Suspends=%v", op, ins.Suspends)
			}
		}
	})

	t.Run("gap is not dispatchable", func(t *testing.T) {
		for _, v := range []uint16{0x807d, 0x807e} {
			if _, ok := New().Lookup(opcode.Opcode(v)); ok {
				t.Errorf("0x%04x should not be in the table", v)
			}
		}
	})
}

// TestAddExample pushes 5 and 3 and adds them.
func TestAddExample(t *testing.T) {
	ps := mustRun(t, `
.proc start args=0
	push 5
	push 3
	add
	exit_prog
`, newTestEnv())
	assertStack(t, ps, Int(8))
}

func TestLiterals(t *testing.T) {
	ps := mustRun(t, `
.proc start args=0
	push 2147483647
	push -1.25
	push "héllo"
	short -300
	push ""
	exit_prog
`, newTestEnv())
	assertStack(t, ps, Int(2147483647), Float(-1.25), String("héllo"), Int(-300), String(""))
}

func TestStackOps(t *testing.T) {
	ps := mustRun(t, `
.proc start args=0
	push 1
	push 2
	swap
	dup
	push 9
	pop
	dump
	exit_prog
`, newTestEnv())
	assertStack(t, ps, Int(2), Int(1), Int(1))
}

func TestCallAndReturn(t *testing.T) {
	src := `
.proc start args=0
	push 2
	push 40
	push 2
	push &add2
	call
	push 1
	add
	exit_prog
.proc add2 args=2
	push 0
	fetch
	push 1
	fetch
	add
	pop_flags_return_val_extern
`
	ps := mustRun(t, src, newTestEnv())
	assertStack(t, ps, Int(43))
	if len(ps.Frames) != 1 {
		t.Errorf("expected only the entry frame, got %d frames", len(ps.Frames))
	}
}

func TestCallByName(t *testing.T) {
	ps := mustRun(t, `
.proc start args=0
	push 0
	push "seven"
	call
	exit_prog
.proc seven args=0
	push 7
	pop_flags_return_val_extern
`, newTestEnv())
	assertStack(t, ps, Int(7))
}

func TestReturnFamily(t *testing.T) {
	// callee pushes 5 and 6 on top of its single argument, then returns.
	tests := []struct {
		ret      string
		want     []Value
		finished bool // the whole invocation ended inside the callee
	}{
		{"pop_return", []Value{Int(100)}, false},
		{"pop_flags_return", []Value{Int(100)}, false},
		{"pop_flags_return_extern", []Value{Int(100)}, false},
		{"pop_flags_return_val_extern", []Value{Int(6), Int(100)}, false},
		{"pop_exit", nil, true},
		{"pop_flags_exit", nil, true},
		{"pop_flags_exit_extern", nil, true},
		{"pop_flags_return_val_exit", []Value{Int(6)}, true},
		{"pop_flags_return_val_exit_extern", []Value{Int(6)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.ret, func(t *testing.T) {
			ps := mustRun(t, `
.proc start args=0
	push 1
	push 1
	push &callee
	call
	push 100
	exit_prog
.proc callee args=1
	push 5
	push 6
	`+tt.ret+`
`, newTestEnv())
			wantProc := "start"
			if tt.finished {
				wantProc = "callee"
			}
			if got := ps.Inst.Program.ProcAt(ps.PC - 2); got != wantProc {
				t.Errorf("last instruction ran in %s, want %s", got, wantProc)
			}
			assertStack(t, ps, tt.want...)
		})
	}
}

func TestReturnRestoresFlags(t *testing.T) {
	ps := mustRun(t, `
.proc start args=0
	push 3
	pop_flags
	push 0
	push &callee
	call
	exit_prog
.proc callee args=0
	push 9
	pop_flags
	pop_flags_return
`, newTestEnv())
	if ps.Flags != 3 {
		t.Errorf("expected flags 3 after return, got %d", ps.Flags)
	}
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ErrorType
	}{
		{"argument count mismatch", `
.proc start args=0
	push 2
	push &one
	call
.proc one args=1
	pop_flags_return
`, ErrorBadProcedure},
		{"unknown procedure index", `
.proc start args=0
	push 0
	push 9
	call
`, ErrorBadProcedure},
		{"unknown procedure name", `
.proc start args=0
	push 0
	push "nope"
	call
`, ErrorBadProcedure},
		{"missing arguments", `
.proc start args=0
	push 2
	push &two
	call
.proc two args=2
	pop_flags_return
`, ErrorStackUnderflow},
		{"float as procedure", `
.proc start args=0
	push 0
	push 1.5
	call
`, ErrorBadOperandType},
		{"imported procedure not exported", `
.proc start args=0
	push 0
	push &far
	call
.proc far args=0 imported
`, ErrorBadProcedure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.src, newTestEnv())
			assertErrorType(t, err, tt.want)
		})
	}
}

func TestFrameOverflow(t *testing.T) {
	_, err := run(t, `
.proc start args=0
	push 0
	push &start
	call
	exit_prog
`, newTestEnv(), WithMaxFrames(4))
	rerr := assertErrorType(t, err, ErrorFrameOverflow)
	if rerr.Proc != "start" || rerr.Opcode != opcode.Call {
		t.Errorf("unexpected location: %v", rerr)
	}
}

func TestStepLimit(t *testing.T) {
	_, err := run(t, `
.proc start args=0
top:
	push @top
	jmp
`, newTestEnv(), WithStepLimit(50))
	assertErrorType(t, err, ErrorStepLimit)
}

func TestBranches(t *testing.T) {
	src := func(cond string) string {
		return `
.proc start args=0
	push @else
	push ` + cond + `
	if
	push 1
	exit_prog
else:
	push 2
	exit_prog
`
	}
	assertStack(t, mustRun(t, src("1"), newTestEnv()), Int(1))
	assertStack(t, mustRun(t, src("0"), newTestEnv()), Int(2))
	assertStack(t, mustRun(t, src(`""`), newTestEnv()), Int(2))
}

func TestWhileLoop(t *testing.T) {
	env := newTestEnv()
	if err := env.Vars.Map.Set(0, Int(3)); err != nil {
		t.Fatal(err)
	}
	ps := mustRun(t, `
.proc start args=0
top:
	push @end
	push 0
	map_var
	while
	push 0
	push 0
	map_var
	push 1
	sub
	set_map_var
	push 1
	push 1
	global_var
	push 1
	add
	set_global_var
	push @top
	jmp
end:
	exit_prog
`, env)
	assertStack(t, ps)
	if v, _ := env.Vars.Map.Get(0); !v.Equal(Int(0)) {
		t.Errorf("counter = %#v, want 0", v)
	}
	if v, _ := env.Vars.Global.Get(1); !v.Equal(Int(3)) {
		t.Errorf("iterations = %#v, want 3", v)
	}
}

func TestJumpOutsideCode(t *testing.T) {
	_, err := run(t, `
.proc start args=0
	push 5000
	jmp
`, newTestEnv())
	assertErrorType(t, err, ErrorBadProgramCounter)
}

func TestRunningOffTheEnd(t *testing.T) {
	_, err := run(t, `
.proc start args=0
	push 1
`, newTestEnv())
	assertErrorType(t, err, ErrorBadProgramCounter)
}

func TestBaseWindow(t *testing.T) {
	ps := mustRun(t, `
.proc start args=0
	push 9
	push 7
	push 1
	push_base
	push 0
	fetch
	pop_to_base
	pop_base
	push 0
	fetch
	exit_prog
`, newTestEnv())
	assertStack(t, ps, Int(9), Int(9))
}

func TestPopBaseWithoutPushBase(t *testing.T) {
	_, err := run(t, `
.proc start args=0
	pop_base
`, newTestEnv())
	assertErrorType(t, err, ErrorBadProcedure)
}

func TestProcedureReferences(t *testing.T) {
	ps := mustRun(t, `
.proc start args=0
	push "helper"
	lookup_string_proc
	dup
	fetch_proc_address
	swap
	push 1
	check_arg_count
	exit_prog
.proc helper args=1
	pop_flags_return
`, newTestEnv())
	assertStack(t, ps, Int(28))

	_, err := run(t, `
.proc start args=0
	push &helper
	push 2
	check_arg_count
.proc helper args=1
	pop_flags_return
`, newTestEnv())
	assertErrorType(t, err, ErrorBadProcedure)
}

func TestUnknownOpcode(t *testing.T) {
	prog, err := program.New("raw", []byte{0x70, 0x00}, []program.Procedure{{Name: "start", Hook: program.Start}}, nil, -1, 0)
	if err != nil {
		t.Fatal(err)
	}
	ps := NewProgramState(NewInstance(1, prog, 0), 0, "start")
	_, err = New().Run(ps, newTestEnv())
	rerr := assertErrorType(t, err, ErrorUnknownOpcode)
	if rerr.PC != 0 || rerr.Program != "raw" {
		t.Errorf("unexpected location: %v", rerr)
	}
}

func TestUnimplementedOpcode(t *testing.T) {
	src := `
.proc start args=0
	push 1
	give_exp_points
	push 2
	add
	exit_prog
`
	t.Run("lenient mode skips it", func(t *testing.T) {
		ps := mustRun(t, src, newTestEnv())
		assertStack(t, ps, Int(3))
	})

	t.Run("strict mode aborts", func(t *testing.T) {
		_, err := run(t, src, newTestEnv(), WithStrictOpcodes(true))
		rerr := assertErrorType(t, err, ErrorUnimplementedOpcode)
		if rerr.PC != 6 || rerr.Opcode != opcode.GiveExpPoints || rerr.IsFatal() {
			t.Errorf("unexpected error details: %+v", rerr)
		}
	})
}

func TestIllegalSuspend(t *testing.T) {
	vm := New()
	vm.table[opcode.Noop8000] = Instruction{
		Op:      opcode.Noop8000,
		Handler: func(c *Context) (Status, error) { return Suspend, nil },
	}
	ps := start(t, `
.proc start args=0
	noop8000
	exit_prog
`, 1)
	_, err := vm.Run(ps, newTestEnv())
	assertErrorType(t, err, ErrorIllegalSuspend)
}

func TestErrorLocation(t *testing.T) {
	_, err := run(t, `
.proc start args=0
	push 0
	push &boom
	call
	exit_prog
.proc boom args=0
	push 1
	push 0
	div
`, newTestEnv())
	rerr := assertErrorType(t, err, ErrorDivisionByZero)
	if rerr.SID != 1 || rerr.Proc != "boom" || rerr.Opcode != opcode.Div || rerr.PC != 28 {
		t.Errorf("unexpected location: %+v", rerr)
	}
}
