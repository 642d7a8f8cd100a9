package conformance

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/zurustar/scriptvm/pkg/asm"
	"github.com/zurustar/scriptvm/pkg/dialog"
	"github.com/zurustar/scriptvm/pkg/logger"
	"github.com/zurustar/scriptvm/pkg/sequence"
	"github.com/zurustar/scriptvm/pkg/vm"
	"github.com/zurustar/scriptvm/pkg/world"
)

// defaultVarCount sizes the map and global stores when a suite doesn't.
const defaultVarCount = 8

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	log *slog.Logger
}

// Option is a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger sets the logger handed to the VM.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner creates a new test runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{log: logger.For("conformance")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// transcript records what a test showed to the player.
type transcript struct {
	shown   []string
	floated []string
}

func (t *transcript) DisplayMessage(text string)               { t.shown = append(t.shown, text) }
func (t *transcript) FloatMessage(_ world.Handle, text string) { t.floated = append(t.floated, text) }

// session is the environment one test runs in.
type session struct {
	env  *vm.Env
	ui   *transcript
	self world.Handle
}

func newSession(suite *TestSuite) *session {
	mapVars, globalVars := suite.MapVars, suite.GlobalVars
	if mapVars == 0 {
		mapVars = defaultVarCount
	}
	if globalVars == 0 {
		globalVars = defaultVarCount
	}
	messages := dialog.Messages{}
	for list, entries := range suite.Messages {
		for num, text := range entries {
			messages.Set(list, num, text)
		}
	}

	s := &session{ui: &transcript{}}
	s.env = &vm.Env{
		World:     world.New(),
		Sequencer: sequence.NewSequencer(),
		Dialog:    dialog.New(),
		UI:        s.ui,
		Messages:  messages,
		Vars:      vm.NewVars(mapVars, globalVars),
		Exports:   vm.NewExports(),
		Rand:      rand.New(rand.NewPCG(1, 2)),
	}
	for i, def := range suite.Objects {
		stats := make(map[world.Stat]int32, len(def.Stats))
		for stat, v := range def.Stats {
			stats[world.Stat(stat)] = v
		}
		h := s.env.World.Insert(world.Object{
			Name:      def.Name,
			PID:       def.PID,
			Tile:      def.Tile,
			Elevation: def.Elevation,
			Visible:   true,
			Stats:     stats,
		})
		if i == 0 {
			s.self = h
		}
		if def.Dude {
			s.env.World.SetDude(h)
		}
	}
	return s
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}
	if err := r.run(test); err != nil {
		return TestResult{Test: test, Error: err}
	}
	return TestResult{Test: test, Passed: true}
}

func (r *Runner) run(test LoadedTest) error {
	tc := test.Test
	prog, errs := asm.Assemble(tc.Name, tc.Source)
	if len(errs) > 0 {
		return fmt.Errorf("assemble: %w", errors.Join(errs...))
	}

	s := newSession(test.Suite)
	for idx, raw := range tc.Globals {
		v, err := ParseValue(raw)
		if err != nil {
			return fmt.Errorf("global %d: %w", idx, err)
		}
		if err := s.env.Vars.Global.Set(idx, v); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	strict := test.Suite.Strict
	if tc.Strict != nil {
		strict = *tc.Strict
	}
	machine := vm.New(
		vm.WithLogger(r.log),
		vm.WithStrictOpcodes(strict),
		vm.WithStepLimit(test.Suite.StepLimit),
	)

	inst := vm.NewInstance(1, prog, s.self)
	if prog.Init >= 0 {
		if _, err := machine.Run(vm.NewProgramState(inst, prog.Init, "init"), s.env); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	id := 0
	if tc.Proc != "" {
		var ok bool
		if id, ok = prog.ProcByName(tc.Proc); !ok {
			return fmt.Errorf("no procedure %q", tc.Proc)
		}
	}
	proc, ok := prog.Proc(id)
	if !ok {
		return fmt.Errorf("program has no procedures")
	}
	args, err := ParseValues(tc.Args)
	if err != nil {
		return fmt.Errorf("args: %w", err)
	}

	ps := vm.NewProgramState(inst, proc.Offset, proc.Name, args...)
	status, runErr := machine.Run(ps, s.env)
	for _, raw := range tc.Resume {
		if runErr != nil || status != vm.Suspend {
			break
		}
		if raw != nil {
			v, err := ParseValue(raw)
			if err != nil {
				return fmt.Errorf("resume: %w", err)
			}
			ps.Push(v)
		}
		status, runErr = machine.Run(ps, s.env)
	}

	return check(tc.Expect, s, ps, status, runErr)
}

func check(want Expectation, s *session, ps *vm.ProgramState, status vm.Status, runErr error) error {
	if want.Error != "" {
		var rerr *vm.RuntimeError
		if !errors.As(runErr, &rerr) {
			return fmt.Errorf("expected %s error, got %v", want.Error, runErr)
		}
		if string(rerr.Type) != want.Error {
			return fmt.Errorf("expected %s error, got %s (%v)", want.Error, rerr.Type, rerr)
		}
		return nil
	}
	if runErr != nil {
		return fmt.Errorf("unexpected error: %w", runErr)
	}

	wantStatus := want.Status
	if wantStatus == "" {
		wantStatus = vm.Halt.String()
	}
	if status.String() != wantStatus {
		return fmt.Errorf("status = %s, want %s", status, wantStatus)
	}

	if want.Stack != nil {
		stack, err := ParseValues(want.Stack)
		if err != nil {
			return fmt.Errorf("expect.stack: %w", err)
		}
		if !slices.EqualFunc(ps.Stack, stack, vm.Value.Equal) {
			return fmt.Errorf("stack = %s, want %s", format(ps.Stack), format(stack))
		}
	}
	if err := checkStore("global", s.env.Vars.Global, want.Globals); err != nil {
		return err
	}
	if err := checkStore("map", s.env.Vars.Map, want.MapVars); err != nil {
		return err
	}
	if want.Displays != nil && !slices.Equal(s.ui.shown, want.Displays) {
		return fmt.Errorf("displayed %q, want %q", s.ui.shown, want.Displays)
	}
	if want.Options != nil {
		var texts []string
		for _, opt := range s.env.Dialog.Options() {
			texts = append(texts, opt.Text)
		}
		if !slices.Equal(texts, want.Options) {
			return fmt.Errorf("options %q, want %q", texts, want.Options)
		}
	}
	return nil
}

func checkStore(scope string, store *vm.Store, want map[int]interface{}) error {
	for idx, raw := range want {
		wantValue, err := ParseValue(raw)
		if err != nil {
			return fmt.Errorf("expect %s var %d: %w", scope, idx, err)
		}
		got, err := store.Get(idx)
		if err != nil {
			return err
		}
		if !got.Equal(wantValue) {
			return fmt.Errorf("%s var %d = %#v, want %#v", scope, idx, got, wantValue)
		}
	}
	return nil
}

func format(values []vm.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.GoString()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(tests))
	for _, test := range tests {
		results = append(results, r.Run(test))
	}
	return results
}

// Stats summarises a run.
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats counts results by outcome.
func ComputeStats(results []TestResult) Stats {
	stats := Stats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			stats.Skipped++
		case r.Passed:
			stats.Passed++
		default:
			stats.Failed++
		}
	}
	return stats
}

// FormatStats renders stats for test logs.
func FormatStats(s Stats) string {
	return fmt.Sprintf("Total: %d\nPassed: %d\nFailed: %d\nSkipped: %d", s.Total, s.Passed, s.Failed, s.Skipped)
}
