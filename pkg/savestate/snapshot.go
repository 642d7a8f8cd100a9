// Package savestate persists the map and global variable stores. Snapshots are
// encoded as canonical CBOR so equal contents always produce equal bytes, and
// are kept in SQLite save slots.
package savestate

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/zurustar/scriptvm/pkg/vm"
	"github.com/zurustar/scriptvm/pkg/world"
)

// Version is the snapshot format written by Marshal.
const Version = 1

// Snapshot is a copy of the variable stores of one session.
type Snapshot struct {
	MapID  int32
	Map    []vm.Value
	Global []vm.Value
}

// Capture copies the current contents of vars.
func Capture(mapID int32, vars *vm.Vars) *Snapshot {
	return &Snapshot{
		MapID:  mapID,
		Map:    vars.Map.Values(),
		Global: vars.Global.Values(),
	}
}

// Restore copies the snapshot into vars without resizing the stores. Map vars
// are only restored when the snapshot was taken on mapID; the result reports
// whether they were.
func (s *Snapshot) Restore(mapID int32, vars *vm.Vars) bool {
	vars.Global.Replace(s.Global)
	if s.MapID != mapID {
		return false
	}
	vars.Map.Replace(s.Map)
	return true
}

// wireValue keeps floats as their bit pattern so NaN payloads and negative
// zero survive the round trip.
type wireValue struct {
	_    struct{} `cbor:",toarray"`
	Kind uint8
	Int  int32
	Bits uint32
	Str  string
	Obj  uint32
}

type wireSnapshot struct {
	Version int         `cbor:"1,keyasint"`
	MapID   int32       `cbor:"2,keyasint"`
	Map     []wireValue `cbor:"3,keyasint"`
	Global  []wireValue `cbor:"4,keyasint"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("savestate: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

func toWire(values []vm.Value) []wireValue {
	out := make([]wireValue, len(values))
	for i, v := range values {
		out[i] = wireValue{
			Kind: uint8(v.Kind),
			Int:  v.Int,
			Bits: math.Float32bits(v.Float),
			Str:  v.Str,
			Obj:  uint32(v.Obj),
		}
	}
	return out
}

func fromWire(values []wireValue) ([]vm.Value, error) {
	out := make([]vm.Value, len(values))
	for i, w := range values {
		kind := vm.Kind(w.Kind)
		if kind > vm.KindProc {
			return nil, fmt.Errorf("savestate: value %d has unknown kind %d", i, w.Kind)
		}
		out[i] = vm.Value{
			Kind:  kind,
			Int:   w.Int,
			Float: math.Float32frombits(w.Bits),
			Str:   w.Str,
			Obj:   world.Handle(w.Obj),
		}
	}
	return out, nil
}

// Marshal serializes s to canonical CBOR.
func Marshal(s *Snapshot) ([]byte, error) {
	return encMode.Marshal(wireSnapshot{
		Version: Version,
		MapID:   s.MapID,
		Map:     toWire(s.Map),
		Global:  toWire(s.Global),
	})
}

// Unmarshal deserializes a snapshot written by Marshal.
func Unmarshal(data []byte) (*Snapshot, error) {
	var w wireSnapshot
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("savestate: unmarshal snapshot: %w", err)
	}
	if w.Version != Version {
		return nil, fmt.Errorf("savestate: unsupported snapshot version %d", w.Version)
	}
	mapVars, err := fromWire(w.Map)
	if err != nil {
		return nil, err
	}
	globalVars, err := fromWire(w.Global)
	if err != nil {
		return nil, err
	}
	return &Snapshot{MapID: w.MapID, Map: mapVars, Global: globalVars}, nil
}
