package vm

import (
	"fmt"
	"testing"

	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/world"
)

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name        string
		left, right string
		op          string
		want        Value
	}{
		{"int add", "7", "5", "add", Int(12)},
		{"int sub", "7", "5", "sub", Int(2)},
		{"int mul", "7", "-5", "mul", Int(-35)},
		{"int div truncates", "-7", "2", "div", Int(-3)},
		{"int mod", "7", "3", "mod", Int(1)},
		{"float promotion", "1", "0.5", "add", Float(1.5)},
		{"float div", "1.0", "4", "div", Float(0.25)},
		{"string concat", `"ab"`, `"cd"`, "add", String("abcd")},
		{"string and int", `"hp:"`, "10", "add", String("hp:10")},
		{"and", "1", "0", "and", Int(0)},
		{"or", "0", `"x"`, "or", Int(1)},
		{"bwand", "12", "10", "bwand", Int(8)},
		{"bwor", "12", "10", "bwor", Int(14)},
		{"bwxor", "12", "10", "bwxor", Int(6)},
		{"equal", "3", "3.0", "equal", Int(1)},
		{"not equal strings", `"a"`, `"b"`, "not_equal", Int(1)},
		{"less", "2", "3", "less", Int(1)},
		{"less equal", "3", "3", "less_equal", Int(1)},
		{"greater", "2", "3", "greater", Int(0)},
		{"greater equal strings", `"b"`, `"a"`, "greater_equal", Int(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := mustRun(t, `
.proc start args=0
	push `+tt.left+`
	push `+tt.right+`
	`+tt.op+`
	exit_prog
`, newTestEnv())
			assertStack(t, ps, tt.want)
		})
	}
}

func TestUnaryOps(t *testing.T) {
	tests := []struct {
		operand string
		op      string
		want    Value
	}{
		{"5", "negate", Int(-5)},
		{"2.5", "negate", Float(-2.5)},
		{"0", "not", Int(1)},
		{`"x"`, "not", Int(0)},
		{"2.7", "floor", Int(2)},
		{"-2.5", "floor", Int(-3)},
		{"4", "floor", Int(4)},
		{"0", "bwnot", Int(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.op+" "+tt.operand, func(t *testing.T) {
			ps := mustRun(t, `
.proc start args=0
	push `+tt.operand+`
	`+tt.op+`
	exit_prog
`, newTestEnv())
			assertStack(t, ps, tt.want)
		})
	}
}

func TestOperandErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ErrorType
	}{
		{"div by zero", "push 1\n\tpush 0\n\tdiv", ErrorDivisionByZero},
		{"mod by zero", "push 1\n\tpush 0\n\tmod", ErrorDivisionByZero},
		{"float div by zero", "push 1.0\n\tpush 0\n\tdiv", ErrorDivisionByZero},
		{"sub string", "push \"a\"\n\tpush 1\n\tsub", ErrorBadOperandType},
		{"negate string", "push \"a\"\n\tnegate", ErrorBadOperandType},
		{"bitwise string", "push \"a\"\n\tpush 1\n\tbwand", ErrorBadOperandType},
		{"underflow", "push 1\n\tadd", ErrorStackUnderflow},
		{"pop empty", "pop", ErrorStackUnderflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, ".proc start args=0\n\t"+tt.body+"\n\texit_prog\n", newTestEnv())
			assertErrorType(t, err, tt.want)
		})
	}
}

func TestVariableScopes(t *testing.T) {
	t.Run("map and global", func(t *testing.T) {
		env := newTestEnv()
		ps := mustRun(t, `
.proc start args=0
	push 2
	push 20
	set_map_var
	push 3
	push "g"
	set_global_var
	push 2
	map_var
	push 3
	global_var
	push 7
	map_var
	exit_prog
`, env)
		assertStack(t, ps, Int(20), String("g"), Int(0))
	})

	t.Run("out of range", func(t *testing.T) {
		for _, body := range []string{
			"push 8\n\tmap_var",
			"push -1\n\tglobal_var",
			"push 8\n\tpush 1\n\tset_map_var",
			"push 0\n\tlocal_var",
			"push 1\n\tfetch",
			"push 5\n\tpush 0\n\tstore",
			"push 0\n\tfetch_global",
		} {
			_, err := run(t, ".proc start args=0\n\t"+body+"\n\texit_prog\n", newTestEnv())
			assertErrorType(t, err, ErrorOutOfBoundsVariable)
		}
	})

	t.Run("script locals", func(t *testing.T) {
		ps := start(t, `
.lvars 2
.proc start args=0
	push 1
	push 11
	set_local_var
	push 1
	local_var
	exit_prog
`, 1)
		if _, err := New().Run(ps, newTestEnv()); err != nil {
			t.Fatal(err)
		}
		assertStack(t, ps, Int(11))
		if v, _ := ps.Inst.LocalVars.Get(1); !v.Equal(Int(11)) {
			t.Errorf("local var 1 = %#v", v)
		}
	})

	t.Run("program vars", func(t *testing.T) {
		ps := mustRun(t, `
.proc start args=0
	push 4
	set_global
	push 11
	push 3
	store_global
	push 3
	fetch_global
	push 0
	fetch_global
	exit_prog
`, newTestEnv())
		assertStack(t, ps, Int(11), Int(0))
	})

	t.Run("frame locals", func(t *testing.T) {
		ps := mustRun(t, `
.proc start args=0
	push 1
	push 2
	push 99
	push 0
	store
	push 0
	fetch
	push 1
	fetch
	exit_prog
`, newTestEnv())
		assertStack(t, ps, Int(99), Int(2), Int(99), Int(2))
	})
}

func TestExternalVariables(t *testing.T) {
	t.Run("declare store fetch", func(t *testing.T) {
		ps := mustRun(t, `
.proc start args=0
	push $hp
	export_var
	push 42
	push $hp
	store_external
	push "hp"
	fetch_external
	exit_prog
`, newTestEnv())
		assertStack(t, ps, Int(42))
		if v := ps.Inst.Exported["hp"]; !v.Equal(Int(42)) {
			t.Errorf("exported hp = %#v", v)
		}
	})

	t.Run("undeclared", func(t *testing.T) {
		_, err := run(t, `
.proc start args=0
	push "ghost"
	fetch_external
`, newTestEnv())
		assertErrorType(t, err, ErrorOutOfBoundsVariable)
	})

	t.Run("shared between programs", func(t *testing.T) {
		env := newTestEnv()
		owner := NewInstance(1, mustProgram(t, "owner", `
.proc start args=0
	push "door_open"
	export_var
	push 1
	push "door_open"
	store_external
	exit_prog
`), 0)
		reader := NewInstance(2, mustProgram(t, "reader", `
.proc start args=0
	push "door_open"
	fetch_external
	exit_prog
`), 0)
		vm := New()
		if _, err := vm.Run(startProc(t, owner, 0), env); err != nil {
			t.Fatal(err)
		}
		ps := startProc(t, reader, 0)
		if _, err := vm.Run(ps, env); err != nil {
			t.Fatal(err)
		}
		assertStack(t, ps, Int(1))
	})
}

func TestExternCall(t *testing.T) {
	lib := `
.proc start args=0
	push &double
	export_proc
	exit_prog
.proc double args=1 exported
	push 0
	fetch
	push 2
	mul
	%s
`
	caller := `
.proc start args=0
	push 21
	push 1
	push &double
	call
	exit_prog
.proc double args=1 imported
`
	setup := func(t *testing.T, ret string) (*Env, *Instance, *Instance) {
		env := newTestEnv()
		libInst := NewInstance(1, mustProgram(t, "lib", fmt.Sprintf(lib, ret)), 0)
		if _, err := New().Run(startProc(t, libInst, 0), env); err != nil {
			t.Fatal(err)
		}
		return env, libInst, NewInstance(2, mustProgram(t, "caller", caller), 0)
	}

	t.Run("returns into the caller", func(t *testing.T) {
		env, _, callerInst := setup(t, "pop_flags_return_val_extern")
		ps := startProc(t, callerInst, 0)
		if _, err := New().Run(ps, env); err != nil {
			t.Fatal(err)
		}
		assertStack(t, ps, Int(42))
		if ps.Inst != callerInst {
			t.Error("caller instance not restored")
		}
	})

	t.Run("local return from extern frame", func(t *testing.T) {
		env, _, callerInst := setup(t, "pop_flags_return_val_exit")
		_, err := New().Run(startProc(t, callerInst, 0), env)
		rerr := assertErrorType(t, err, ErrorBadProcedure)
		if rerr.Program != "lib" {
			t.Errorf("expected the error inside lib, got %s", rerr.Program)
		}
	})
}

func TestWorldOps(t *testing.T) {
	env := newTestEnv()
	dude := env.World.Insert(world.Object{Name: "dude", PID: 1, Tile: world.TileAt(10, 10), Visible: true,
		Stats: map[world.Stat]int32{world.StatIntelligence: 6}})
	env.World.SetDude(dude)
	npc := env.World.Insert(world.Object{Name: "Aradesh", PID: 77, Tile: world.TileAt(13, 10), Visible: true})
	env.MapID = 5

	ps := start(t, `
.proc start args=0
	self_obj
	obj_pid
	self_obj
	obj_name
	dude_obj
	self_obj
	tile_distance_objs
	self_obj
	push 35
	push 12
	set_critter_stat
	pop
	self_obj
	push 35
	get_critter_stat
	cur_map_index
	push 3
	push 3
	random
	exit_prog
`, 1)
	ps.Inst.Self = npc
	if _, err := New().Run(ps, env); err != nil {
		t.Fatal(err)
	}
	assertStack(t, ps, Int(77), String("Aradesh"), Int(3), Int(12), Int(5), Int(3))
}

func TestObjectStateOps(t *testing.T) {
	env := newTestEnv()
	door := env.World.Insert(world.Object{Name: "door", Tile: 500, Visible: true})
	ps := start(t, `
.proc start args=0
	self_obj
	obj_lock
	self_obj
	obj_is_locked
	self_obj
	obj_open
	self_obj
	obj_is_open
	self_obj
	push 1
	set_obj_visibility
	self_obj
	destroy_object
	exit_prog
`, 1)
	ps.Inst.Self = door
	if _, err := New().Run(ps, env); err != nil {
		t.Fatal(err)
	}
	assertStack(t, ps, Int(1), Int(1))
	if _, ok := env.World.Get(door); ok {
		t.Error("door should be destroyed")
	}
}

func TestMissingObject(t *testing.T) {
	_, err := run(t, `
.proc start args=0
	push 99
	obj_pid
`, newTestEnv())
	assertErrorType(t, err, ErrorBadOperandType)
}

func TestTileOps(t *testing.T) {
	a, b := world.TileAt(10, 10), world.TileAt(14, 10)
	ps := mustRun(t, fmt.Sprintf(`
.proc start args=0
	push %d
	push %d
	tile_distance
	push %d
	push 1
	push 4
	tile_num_in_direction
	push -1
	push 5
	tile_distance
	exit_prog
`, a, b, a), newTestEnv())
	assertStack(t, ps, Int(4), Int(int32(world.TileInDirection(a, world.E, 4))), Int(farAway))
}

func TestCreateObjectAndFind(t *testing.T) {
	env := newTestEnv()
	ps := mustRun(t, `
.proc start args=0
	push 300
	push 1234
	push 0
	push 9
	create_object_sid
	obj_pid
	push 1234
	push 0
	push 300
	tile_contains_pid_obj
	push 1234
	push 0
	push 301
	tile_contains_pid_obj
	exit_prog
`, env)
	if len(ps.Stack) != 3 || !ps.Stack[0].Equal(Int(300)) || ps.Stack[1].Kind != KindObject || !ps.Stack[2].Equal(Int(0)) {
		t.Fatalf("unexpected stack %#v", ps.Stack)
	}
	obj, ok := env.World.Get(ps.Stack[1].Obj)
	if !ok || obj.Script != 9 || obj.Tile != 1234 {
		t.Errorf("unexpected object %+v", obj)
	}
}

type recordingUI struct {
	shown   []string
	floated []string
}

func (u *recordingUI) DisplayMessage(text string)                 { u.shown = append(u.shown, text) }
func (u *recordingUI) FloatMessage(obj world.Handle, text string) { u.floated = append(u.floated, text) }

func TestMessages(t *testing.T) {
	env := newTestEnv()
	ui := &recordingUI{}
	env.UI = ui
	env.Messages = dialog.Messages{100: {1: "Welcome."}}
	ps := mustRun(t, `
.proc start args=0
	push 100
	push 1
	message_str
	dup
	display_msg
	push 100
	push 2
	message_str
	push 0
	push "ouch"
	push 0
	float_msg
	exit_prog
`, env)
	assertStack(t, ps, String("Welcome."), String("Error"))
	if len(ui.shown) != 1 || ui.shown[0] != "Welcome." || len(ui.floated) != 1 || ui.floated[0] != "ouch" {
		t.Errorf("ui got shown=%v floated=%v", ui.shown, ui.floated)
	}
}

type recordingTimers struct {
	added   []int32
	removed []uint32
}

func (r *recordingTimers) AddTimer(sid uint32, delay int, param int32) { r.added = append(r.added, param) }
func (r *recordingTimers) RemoveTimers(sid uint32)                     { r.removed = append(r.removed, sid) }

func TestTimersAndTime(t *testing.T) {
	env := newTestEnv()
	timers := &recordingTimers{}
	env.Timers = timers
	env.World.GameTime = 10 * (14*3600 + 30*60)
	ps := mustRun(t, `
.proc start args=0
	push 0
	push 10
	push 4
	add_timer_event
	push 0
	rm_timer_event
	game_time_hour
	push 3
	game_ticks
	fixed_param
	script_overrides
	exit_prog
`, env)
	assertStack(t, ps, Int(1430), Int(30), Int(0))
	if len(timers.added) != 1 || timers.added[0] != 4 || len(timers.removed) != 1 || timers.removed[0] != 1 {
		t.Errorf("timers = %+v", timers)
	}
	if !ps.Inst.ScriptOverrides {
		t.Error("script_overrides not recorded")
	}
}

func TestDialogOps(t *testing.T) {
	env := newTestEnv()
	env.Messages = dialog.Messages{100: {10: "Hello.", 11: "Bye.", 12: "Smart answer."}}
	dude := env.World.Insert(world.Object{Name: "dude", Stats: map[world.Stat]int32{world.StatIntelligence: 4}})
	env.World.SetDude(dude)

	ps := start(t, `
.proc talk_p_proc args=0
	gsay_start
	push 100
	push 10
	gsay_reply
	push 100
	push 11
	push &leave
	push 50
	gsay_option
	push 5
	push 100
	push 12
	push 0
	push 50
	giq_option
	push -4
	push 100
	push 12
	push 0
	push 50
	giq_option
	gsay_end
	push 1
	exit_prog
.proc leave args=0
	end_dialogue
	pop_flags_return
`, 3)
	vm := New()
	status, err := vm.Run(ps, env)
	if err != nil || status != Suspend {
		t.Fatalf("expected suspension, got %s %v", status, err)
	}
	d := env.Dialog
	if !d.Active() || d.SID() != 3 || d.Reply() != "Hello." {
		t.Errorf("dialog state: active=%v sid=%d reply=%q", d.Active(), d.SID(), d.Reply())
	}
	opts := d.Options()
	if len(opts) != 2 || opts[0].Text != "Bye." || opts[0].Proc != 1 || opts[1].Text != "Smart answer." || opts[1].Proc != dialog.NoProc {
		t.Fatalf("options = %+v", opts)
	}

	status, err = vm.Run(ps, env)
	if err != nil || status != Halt {
		t.Fatalf("expected halt after resume, got %s %v", status, err)
	}
	assertStack(t, ps, Int(1))
}

func TestGsayEndWithoutOptions(t *testing.T) {
	env := newTestEnv()
	ps := mustRun(t, `
.proc talk_p_proc args=0
	gsay_start
	push 0
	push "Nothing to say."
	push 0
	gsay_message
	gsay_start
	gsay_end
	push 1
	exit_prog
`, env)
	assertStack(t, ps, Int(1))
}

func TestAnimationBatch(t *testing.T) {
	env := newTestEnv()
	obj := env.World.Insert(world.Object{Name: "guard", Tile: world.TileAt(20, 20), Visible: true})
	dst := world.TileAt(23, 20)

	ps := start(t, fmt.Sprintf(`
.proc start args=0
	push 1
	push 0
	reg_anim_func
	self_obj
	push %d
	push 0
	reg_anim_obj_move_to_tile
	self_obj
	push 0
	reg_anim_animate_forever
	self_obj
	anim_busy
	push 3
	push 0
	reg_anim_func
	self_obj
	anim_busy
	exit_prog
`, dst), 1)
	ps.Inst.Self = obj
	if _, err := New().Run(ps, env); err != nil {
		t.Fatal(err)
	}
	assertStack(t, ps, Int(0), Int(1))

	arrived := false
	for tick := uint64(1); tick <= 20 && !arrived; tick++ {
		env.Sequencer.Update(&sequence.Update{Tick: tick, World: env.World})
		for _, e := range env.World.DrainEvents() {
			arrived = arrived || (e.Kind == world.EventArrived && e.Object == obj && e.Tile == dst)
		}
	}
	if !arrived {
		t.Fatal("guard never arrived")
	}
	if !env.Sequencer.Has(obj) {
		t.Error("animate_forever should keep the chain alive")
	}

	env.Sequencer.Cleanup(&sequence.Cleanup{World: env.World})
	if o, _ := env.World.Get(obj); o.Anim != world.AnimStand {
		t.Errorf("cleanup should restore the stand pose, anim=%d", o.Anim)
	}
}

func TestAnimateMoveStartsImmediately(t *testing.T) {
	env := newTestEnv()
	obj := env.World.Insert(world.Object{Name: "rat", Tile: world.TileAt(5, 5), Visible: true})
	ps := start(t, fmt.Sprintf(`
.proc start args=0
	self_obj
	push %d
	push 1
	animate_move_obj_to_tile
	self_obj
	anim_busy
	push 2
	self_obj
	reg_anim_func
	self_obj
	anim_busy
	exit_prog
`, world.TileAt(8, 5)), 1)
	ps.Inst.Self = obj
	if _, err := New().Run(ps, env); err != nil {
		t.Fatal(err)
	}
	assertStack(t, ps, Int(1), Int(0))
}
