package conformance

import (
	"fmt"

	"github.com/zurustar/scriptvm/pkg/vm"
	"github.com/zurustar/scriptvm/pkg/world"
)

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description,omitempty"`
	MapVars     int                    `yaml:"map_vars,omitempty"`
	GlobalVars  int                    `yaml:"global_vars,omitempty"`
	Strict      bool                   `yaml:"strict,omitempty"`
	StepLimit   int                    `yaml:"step_limit,omitempty"`
	Messages    map[int]map[int]string `yaml:"messages,omitempty"`
	Objects     []ObjectSpec           `yaml:"objects,omitempty"`
	Tests       []TestCase             `yaml:"tests"`
}

// ObjectSpec is an object inserted into the world before each test. Objects get
// handles 1, 2, ... in order; the first one is the object the script runs as.
type ObjectSpec struct {
	Name      string        `yaml:"name"`
	PID       int32         `yaml:"pid,omitempty"`
	Tile      int           `yaml:"tile,omitempty"`
	Elevation int           `yaml:"elevation,omitempty"`
	Dude      bool          `yaml:"dude,omitempty"`
	Stats     map[int]int32 `yaml:"stats,omitempty"` // stat number -> value
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Skip        interface{}         `yaml:"skip,omitempty"` // bool or string
	Strict      *bool               `yaml:"strict,omitempty"`
	Source      string              `yaml:"source"`
	Proc        string              `yaml:"proc,omitempty"` // defaults to the first procedure
	Args        []interface{}       `yaml:"args,omitempty"`
	Globals     map[int]interface{} `yaml:"globals,omitempty"`
	Resume      []interface{}       `yaml:"resume,omitempty"` // one entry per suspension; null resumes without a value
	Expect      Expectation         `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Status   string              `yaml:"status,omitempty"` // halt (default) or suspend
	Stack    []interface{}       `yaml:"stack,omitempty"`
	Error    string              `yaml:"error,omitempty"` // STACK_UNDERFLOW, DIVISION_BY_ZERO, etc.
	Globals  map[int]interface{} `yaml:"globals,omitempty"`
	MapVars  map[int]interface{} `yaml:"map_vars,omitempty"`
	Displays []string            `yaml:"displays,omitempty"`
	Options  []string            `yaml:"options,omitempty"`
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}

// ParseValue converts a decoded YAML scalar into a VM value. Integers become
// Int, floats Float and strings String; the maps {object: n} and {proc: n}
// select the other kinds.
func ParseValue(raw interface{}) (vm.Value, error) {
	switch v := raw.(type) {
	case int:
		return vm.Int(int32(v)), nil
	case float64:
		return vm.Float(float32(v)), nil
	case string:
		return vm.String(v), nil
	case bool:
		return vm.Bool(v), nil
	case nil:
		return vm.Int(0), nil
	case map[string]interface{}:
		if len(v) != 1 {
			return vm.Value{}, fmt.Errorf("value map must have exactly one key, got %v", v)
		}
		for kind, n := range v {
			id, ok := n.(int)
			if !ok {
				return vm.Value{}, fmt.Errorf("%s value must be an integer, got %v", kind, n)
			}
			switch kind {
			case "object":
				return vm.Object(world.Handle(id)), nil
			case "proc":
				return vm.Proc(id), nil
			}
			return vm.Value{}, fmt.Errorf("unknown value kind %q", kind)
		}
	}
	return vm.Value{}, fmt.Errorf("unsupported value %v (%T)", raw, raw)
}

// ParseValues converts a list with ParseValue.
func ParseValues(raw []interface{}) ([]vm.Value, error) {
	out := make([]vm.Value, 0, len(raw))
	for i, r := range raw {
		v, err := ParseValue(r)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
