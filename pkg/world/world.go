// Package world is a minimal in-memory entity store. Scripts and sequences read and
// mutate objects through it; rendering and asset data live elsewhere.
package world

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/zurustar/scriptvm/pkg/logger"
)

// Handle identifies an object. The zero Handle means "no object".
type Handle uint32

// Stat indexes a critter statistic.
type Stat int

const (
	StatStrength Stat = iota
	StatPerception
	StatEndurance
	StatCharisma
	StatIntelligence
	StatAgility
	StatLuck
	StatMaxHitPoints
	StatCurrentHitPoints Stat = 35
)

// Anim identifies the animation an object is playing.
type Anim int

const (
	AnimStand Anim = iota
	AnimWalk
	AnimRunning Anim = 20
)

// EventKind classifies a world event.
type EventKind int

const (
	// EventArrived is emitted when a move sequence lands on its final tile.
	EventArrived EventKind = iota
	EventDestroyed
)

func (k EventKind) String() string {
	switch k {
	case EventArrived:
		return "arrived"
	case EventDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event records a notable mutation for observers such as the debug view and tests.
type Event struct {
	Kind   EventKind
	Object Handle
	Tile   int
}

// Object is one entity on the map.
type Object struct {
	Handle    Handle
	Name      string
	PID       int32
	Tile      int
	Elevation int
	Direction Direction
	Anim      Anim
	Frame     int
	Visible   bool
	Locked    bool
	Open      bool
	Stats     map[Stat]int32

	// Script is the id of the script attached to the object, 0 if none.
	Script uint32
}

// Stat returns the value of s, 0 if unset.
func (o *Object) Stat(s Stat) int32 {
	return o.Stats[s]
}

// World holds all objects of the current map.
type World struct {
	objects map[Handle]*Object
	next    Handle
	dude    Handle
	events  []Event

	// GameTime is the game clock in ticks (ten per second).
	GameTime uint32

	log *slog.Logger
}

// Option is a functional option for configuring the World.
type Option func(*World)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *World) {
		w.log = log
	}
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{
		objects: make(map[Handle]*Object),
		next:    1,
		log:     logger.For("world"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Clear removes all objects and events.
func (w *World) Clear() {
	w.objects = make(map[Handle]*Object)
	w.next = 1
	w.dude = 0
	w.events = nil
}

// Insert adds obj and returns its new handle. Any handle set on obj is ignored.
func (w *World) Insert(obj Object) Handle {
	h := w.next
	w.next++
	obj.Handle = h
	if obj.Stats == nil {
		obj.Stats = make(map[Stat]int32)
	}
	w.objects[h] = &obj
	w.log.Debug("Object inserted", "handle", h, "name", obj.Name, "tile", obj.Tile)
	return h
}

// Get returns the object for h.
func (w *World) Get(h Handle) (*Object, bool) {
	obj, ok := w.objects[h]
	return obj, ok
}

// Remove destroys the object for h.
func (w *World) Remove(h Handle) bool {
	obj, ok := w.objects[h]
	if !ok {
		return false
	}
	delete(w.objects, h)
	if w.dude == h {
		w.dude = 0
	}
	w.emit(Event{Kind: EventDestroyed, Object: h, Tile: obj.Tile})
	return true
}

// Handles returns every live handle in ascending order.
func (w *World) Handles() []Handle {
	hs := make([]Handle, 0, len(w.objects))
	for h := range w.objects {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

// Len returns the number of objects.
func (w *World) Len() int {
	return len(w.objects)
}

// SetDude marks h as the player character.
func (w *World) SetDude(h Handle) {
	w.dude = h
}

// Dude returns the player character handle, 0 if none.
func (w *World) Dude() Handle {
	return w.dude
}

// SetTile moves the object to tile without emitting an event.
func (w *World) SetTile(h Handle, tile int) error {
	obj, ok := w.objects[h]
	if !ok {
		return fmt.Errorf("no object with handle %d", h)
	}
	if !ValidTile(tile) {
		return fmt.Errorf("tile %d out of grid", tile)
	}
	obj.Tile = tile
	return nil
}

// Arrive places the object on the final tile of a move and emits EventArrived.
func (w *World) Arrive(h Handle, tile int) error {
	if err := w.SetTile(h, tile); err != nil {
		return err
	}
	w.emit(Event{Kind: EventArrived, Object: h, Tile: tile})
	return nil
}

// ObjectsAt returns the handles of objects on tile at elevation, ascending.
func (w *World) ObjectsAt(tile, elevation int) []Handle {
	var hs []Handle
	for _, h := range w.Handles() {
		obj := w.objects[h]
		if obj.Tile == tile && obj.Elevation == elevation {
			hs = append(hs, h)
		}
	}
	return hs
}

// Blocked reports whether another visible object occupies tile.
func (w *World) Blocked(tile, elevation int, except Handle) bool {
	for h, obj := range w.objects {
		if h != except && obj.Visible && obj.Tile == tile && obj.Elevation == elevation {
			return true
		}
	}
	return false
}

// PathFor returns a path for the object to dst avoiding other objects.
func (w *World) PathFor(h Handle, dst int) []int {
	obj, ok := w.objects[h]
	if !ok {
		return nil
	}
	return FindPath(obj.Tile, dst, func(tile int) bool {
		return w.Blocked(tile, obj.Elevation, h)
	})
}

func (w *World) emit(e Event) {
	w.events = append(w.events, e)
}

// Events returns the events recorded since the last DrainEvents.
func (w *World) Events() []Event {
	return w.events
}

// DrainEvents returns and clears the recorded events.
func (w *World) DrainEvents() []Event {
	events := w.events
	w.events = nil
	return events
}
