package vm

// Store is a fixed-size, integer-indexed variable scope. Unwritten slots read as
// Int(0); indexes outside the declared size fail instead of growing the store.
type Store struct {
	scope  string
	values []Value
}

// NewStore creates a store with size zero-valued slots.
func NewStore(scope string, size int) *Store {
	if size < 0 {
		size = 0
	}
	return &Store{scope: scope, values: make([]Value, size)}
}

// NewStoreFrom creates a store holding a copy of values.
func NewStoreFrom(scope string, values []Value) *Store {
	s := &Store{scope: scope, values: make([]Value, len(values))}
	copy(s.values, values)
	return s
}

// Scope returns the scope name used in diagnostics.
func (s *Store) Scope() string { return s.scope }

// Len returns the declared size.
func (s *Store) Len() int { return len(s.values) }

// Get returns the value at index.
func (s *Store) Get(index int) (Value, error) {
	if index < 0 || index >= len(s.values) {
		return Value{}, NewOutOfBoundsError(s.scope, index, len(s.values))
	}
	return s.values[index], nil
}

// Set stores v at index.
func (s *Store) Set(index int, v Value) error {
	if index < 0 || index >= len(s.values) {
		return NewOutOfBoundsError(s.scope, index, len(s.values))
	}
	s.values[index] = v
	return nil
}

// Values returns a copy of the contents.
func (s *Store) Values() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

// Replace overwrites the contents with values and keeps the declared size.
// Slots past len(values) are reset to Int(0); extra values are dropped. It
// returns the number of values copied.
func (s *Store) Replace(values []Value) int {
	n := copy(s.values, values)
	clear(s.values[n:])
	return n
}

// Vars holds the stores that outlive a single program instance.
type Vars struct {
	// Map lives as long as the current map.
	Map *Store
	// Global lives for the whole game session.
	Global *Store
}

// NewVars creates zeroed map and global stores.
func NewVars(mapSize, globalSize int) *Vars {
	return &Vars{
		Map:    NewStore("map", mapSize),
		Global: NewStore("global", globalSize),
	}
}
