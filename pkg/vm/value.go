package vm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zurustar/scriptvm/pkg/world"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindObject
	KindProc
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindProc:
		return "proc"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a runtime datum. The zero Value is Int(0).
type Value struct {
	Kind  Kind
	Int   int32 // KindInt and KindProc
	Float float32
	Str   string
	Obj   world.Handle
}

func Int(i int32) Value           { return Value{Kind: KindInt, Int: i} }
func Float(f float32) Value       { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value       { return Value{Kind: KindString, Str: s} }
func Object(h world.Handle) Value { return Value{Kind: KindObject, Obj: h} }
func Proc(id int) Value           { return Value{Kind: KindProc, Int: int32(id)} }

// Bool converts a Go bool to Int 1 or 0.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// IsNumeric reports whether v takes part in arithmetic.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindObject
}

// AsInt returns the integer view of v. Objects convert to their handle.
func (v Value) AsInt() (int32, bool) {
	switch v.Kind {
	case KindInt, KindProc:
		return v.Int, true
	case KindFloat:
		return int32(v.Float), true
	case KindObject:
		return int32(v.Obj), true
	default:
		return 0, false
	}
}

// AsFloat returns the float view of v.
func (v Value) AsFloat() (float32, bool) {
	switch v.Kind {
	case KindFloat:
		return v.Float, true
	case KindInt:
		return float32(v.Int), true
	case KindObject:
		return float32(v.Obj), true
	default:
		return 0, false
	}
}

// AsObject returns the object handle of v. Int 0 is accepted as "no object".
func (v Value) AsObject() (world.Handle, bool) {
	switch v.Kind {
	case KindObject:
		return v.Obj, true
	case KindInt:
		if v.Int >= 0 {
			return world.Handle(v.Int), true
		}
	}
	return 0, false
}

// Truthy is the condition value used by If, While and the logic opcodes.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindObject:
		return v.Obj != 0
	default:
		return true
	}
}

// Equal compares kind and payload. Floats compare by bit pattern.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindFloat:
		return math.Float32bits(v.Float) == math.Float32bits(o.Float)
	case KindString:
		return v.Str == o.Str
	case KindObject:
		return v.Obj == o.Obj
	default:
		return v.Int == o.Int
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(int64(v.Int), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.Float), 'f', 5, 32)
	case KindString:
		return v.Str
	case KindObject:
		return fmt.Sprintf("<object %d>", v.Obj)
	case KindProc:
		return fmt.Sprintf("<proc %d>", v.Int)
	default:
		return "<invalid>"
	}
}

// GoString renders the value with its kind, used in diagnostics.
func (v Value) GoString() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.Kind.String() + "(" + v.String() + ")"
}
