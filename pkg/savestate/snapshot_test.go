package savestate

import (
	"bytes"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/scriptvm/pkg/vm"
	"github.com/zurustar/scriptvm/pkg/world"
)

func sameValue(a, b vm.Value) bool {
	return a.Kind == b.Kind && a.Int == b.Int && a.Str == b.Str && a.Obj == b.Obj &&
		math.Float32bits(a.Float) == math.Float32bits(b.Float)
}

func sameValues(a, b []vm.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameValue(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestCaptureRestore(t *testing.T) {
	vars := vm.NewVars(3, 2)
	vars.Map.Set(0, vm.Int(7))
	vars.Map.Set(2, vm.String("open"))
	vars.Global.Set(1, vm.Float(1.5))

	snap := Capture(4, vars)

	// Later writes must not leak into the snapshot.
	vars.Map.Set(0, vm.Int(99))

	restored := vm.NewVars(3, 2)
	if !snap.Restore(4, restored) {
		t.Fatal("map vars of the same map were not restored")
	}
	if v, _ := restored.Map.Get(0); !sameValue(v, vm.Int(7)) {
		t.Errorf("map[0] = %v", v)
	}
	if v, _ := restored.Map.Get(2); !sameValue(v, vm.String("open")) {
		t.Errorf("map[2] = %v", v)
	}
	if v, _ := restored.Global.Get(1); !sameValue(v, vm.Float(1.5)) {
		t.Errorf("global[1] = %v", v)
	}
}

func TestRestore_KeepsDeclaredSizes(t *testing.T) {
	snap := &Snapshot{
		MapID:  1,
		Map:    []vm.Value{vm.Int(1)},
		Global: []vm.Value{vm.Int(1), vm.Int(2), vm.Int(3)},
	}

	vars := vm.NewVars(4, 2)
	vars.Map.Set(3, vm.Int(9))
	snap.Restore(1, vars)
	if vars.Map.Len() != 4 || vars.Global.Len() != 2 {
		t.Fatalf("sizes = %d/%d, want 4/2", vars.Map.Len(), vars.Global.Len())
	}
	if v, _ := vars.Map.Get(0); !sameValue(v, vm.Int(1)) {
		t.Errorf("map[0] = %v", v)
	}
	if v, err := vars.Map.Get(3); err != nil || !sameValue(v, vm.Int(0)) {
		t.Errorf("map[3] = %v, %v; want cleared", v, err)
	}
	if v, _ := vars.Global.Get(1); !sameValue(v, vm.Int(2)) {
		t.Errorf("global[1] = %v", v)
	}
}

func TestRestore_OtherMap(t *testing.T) {
	snap := &Snapshot{
		MapID:  1,
		Map:    []vm.Value{vm.Int(5)},
		Global: []vm.Value{vm.Int(6)},
	}
	vars := vm.NewVars(1, 1)
	vars.Map.Set(0, vm.Int(8))
	if snap.Restore(2, vars) {
		t.Error("map vars restored from another map")
	}
	if v, _ := vars.Map.Get(0); !sameValue(v, vm.Int(8)) {
		t.Errorf("map[0] = %v, want untouched", v)
	}
	if v, _ := vars.Global.Get(0); !sameValue(v, vm.Int(6)) {
		t.Errorf("global[0] = %v", v)
	}
}

func TestMarshal_Canonical(t *testing.T) {
	snap := &Snapshot{
		MapID:  2,
		Map:    []vm.Value{vm.Int(1), vm.Object(world.Handle(9)), vm.Proc(3)},
		Global: []vm.Value{vm.Float(float32(math.Copysign(0, -1)))},
	}
	a, err := Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoding is not deterministic")
	}

	got, err := Unmarshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if got.MapID != 2 || !sameValues(got.Map, snap.Map) || !sameValues(got.Global, snap.Global) {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !math.Signbit(float64(got.Global[0].Float)) {
		t.Error("negative zero lost")
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for garbage input")
	}

	future, err := encMode.Marshal(wireSnapshot{Version: Version + 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unmarshal(future); err == nil {
		t.Error("expected error for unknown version")
	}

	badKind, err := encMode.Marshal(wireSnapshot{Version: Version, Map: []wireValue{{Kind: 42}}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unmarshal(badKind); err == nil {
		t.Error("expected error for unknown value kind")
	}
}

func genValue() gopter.Gen {
	return gen.IntRange(0, int(vm.KindProc)).FlatMap(func(k interface{}) gopter.Gen {
		switch vm.Kind(k.(int)) {
		case vm.KindFloat:
			return gen.UInt32().Map(func(bits uint32) vm.Value {
				return vm.Float(math.Float32frombits(bits))
			})
		case vm.KindString:
			return gen.AnyString().Map(func(s string) vm.Value { return vm.String(s) })
		case vm.KindObject:
			return gen.UInt32().Map(func(h uint32) vm.Value { return vm.Object(world.Handle(h)) })
		case vm.KindProc:
			return gen.IntRange(0, 1000).Map(func(id int) vm.Value { return vm.Proc(id) })
		default:
			return gen.Int32().Map(func(i int32) vm.Value { return vm.Int(i) })
		}
	}, nil)
}

// Property: a snapshot survives Marshal/Unmarshal bit for bit, including NaN
// payloads.
func TestProperty10_SnapshotRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("round trip preserves every value", prop.ForAll(
		func(mapID int32, mapVars, globalVars []vm.Value) bool {
			snap := &Snapshot{MapID: mapID, Map: mapVars, Global: globalVars}
			data, err := Marshal(snap)
			if err != nil {
				return false
			}
			got, err := Unmarshal(data)
			if err != nil {
				return false
			}
			return got.MapID == mapID && sameValues(got.Map, mapVars) && sameValues(got.Global, globalVars)
		},
		gen.Int32(),
		gen.SliceOf(genValue()),
		gen.SliceOf(genValue()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
