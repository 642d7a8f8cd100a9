package script

import "fmt"

// Kind is the category of a script, kept in the high byte of its SID.
type Kind uint8

const (
	KindSystem Kind = iota
	KindSpatial
	KindTimer
	KindItem
	KindCritter
)

var kindNames = [...]string{
	KindSystem:  "system",
	KindSpatial: "spatial",
	KindTimer:   "timer",
	KindItem:    "item",
	KindCritter: "critter",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown script kind %q", name)
}

// SID identifies one loaded script.
type SID uint32

const sidIDMask = 0x00ffffff

// NewSID packs kind and id. id is truncated to 24 bits.
func NewSID(kind Kind, id uint32) SID {
	return SID(uint32(kind)<<24 | id&sidIDMask)
}

func (s SID) Kind() Kind { return Kind(s >> 24) }
func (s SID) ID() uint32 { return uint32(s) & sidIDMask }

func (s SID) String() string {
	return fmt.Sprintf("%s:%d", s.Kind(), s.ID())
}
