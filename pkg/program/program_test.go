package program

import (
	"strings"
	"testing"
)

func TestNewValidatesProcedures(t *testing.T) {
	code := make([]byte, 10)
	tests := []struct {
		name    string
		procs   []Procedure
		init    int
		wantErr string
	}{
		{"valid", []Procedure{{Name: "talk_p_proc", Offset: 2, Hook: Talk}}, -1, ""},
		{"offset outside code", []Procedure{{Name: "p", Offset: 10, Hook: NoHook}}, -1, "outside code"},
		{"negative args", []Procedure{{Name: "p", ArgCount: -1, Hook: NoHook}}, -1, "negative argument count"},
		{"duplicate hook", []Procedure{{Name: "a", Hook: Talk}, {Name: "b", Hook: Talk}}, -1, "duplicate predefined procedure"},
		{"imported ignores offset", []Procedure{{Name: "x", Offset: 99, Hook: NoHook, Flags: ProcImported}}, -1, ""},
		{"init outside code", nil, 10, "init offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("p", code, tt.procs, nil, tt.init, 0)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLookups(t *testing.T) {
	p, err := New("p", make([]byte, 20), []Procedure{
		{Name: "start", Offset: 0, Hook: Start},
		{Name: "helper", Offset: 6, Hook: NoHook},
		{Name: "talk_p_proc", Offset: 12, Hook: Talk},
	}, nil, -1, 0)
	if err != nil {
		t.Fatal(err)
	}

	if id, ok := p.ProcByHook(Talk); !ok || id != 2 {
		t.Errorf("ProcByHook(Talk) = %d, %v", id, ok)
	}
	if _, ok := p.ProcByHook(MapEnter); ok {
		t.Error("expected no map_enter hook")
	}
	if id, ok := p.ProcByName("helper"); !ok || id != 1 {
		t.Errorf("ProcByName(helper) = %d, %v", id, ok)
	}
	if _, ok := p.Proc(3); ok {
		t.Error("expected Proc(3) to fail")
	}

	tests := []struct {
		pc   int
		want string
	}{
		{0, "start"},
		{5, "start"},
		{6, "helper"},
		{19, "talk_p_proc"},
	}
	for _, tt := range tests {
		if got := p.ProcAt(tt.pc); got != tt.want {
			t.Errorf("ProcAt(%d) = %q, want %q", tt.pc, got, tt.want)
		}
	}
}

func TestParseHook(t *testing.T) {
	tests := []struct {
		name string
		want Hook
	}{
		{"talk_p_proc", Talk},
		{"talk", Talk},
		{"start", Start},
		{"map_enter", MapEnter},
		{"timed_event_p_proc", TimedEvent},
	}
	for _, tt := range tests {
		got, err := ParseHook(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseHook(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
	if _, err := ParseHook("nope"); err == nil {
		t.Error("expected error for unknown hook")
	}
	if Talk.String() != "talk_p_proc" || Hook(99).String() != "Hook(99)" {
		t.Errorf("unexpected hook names %q %q", Talk.String(), Hook(99).String())
	}
}

func TestHookNumbering(t *testing.T) {
	tests := []struct {
		hook Hook
		want int
	}{
		{NoHook, -1},
		{NoProc, 0},
		{Start, 1},
		{UseSkillOn, 8},
		{Talk, 11},
		{Destroy, 18},
		{LookAt, 21},
		{MapUpdate, 23},
	}
	for _, tt := range tests {
		if int(tt.hook) != tt.want {
			t.Errorf("%s = %d, want %d", tt.hook, int(tt.hook), tt.want)
		}
	}
}
