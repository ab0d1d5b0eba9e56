// Package arena provides a generational arena: a slot-based container with
// O(1) insert and remove whose indices can be handed out safely.
//
// Every index carries the generation of the slot it was issued for. Removing
// an entry bumps the arena's generation counter, so an index held after its
// entry is removed never resolves again, even once the slot is reused — the
// classic ABA hazard of plain free-list allocators does not apply.
//
// An Arena performs no internal locking. It is intended to be owned by a
// single goroutine, or guarded externally (a backend wraps its arenas in a
// sync.RWMutex, for example).
package arena

// Index is a safe external reference into an Arena.
//
// The zero Index is never issued by an arena and acts as a "no entry"
// sentinel.
type Index struct {
	// Slot is the position in the arena's backing storage.
	Slot uint32
	// Generation is the generation of the slot when the index was issued.
	Generation uint32
}

// IsZero reports whether the index is the "no entry" sentinel.
func (i Index) IsZero() bool {
	return i == Index{}
}

// Pack encodes the index into a single uint64, generation in the high bits.
func (i Index) Pack() uint64 {
	return uint64(i.Generation)<<32 | uint64(i.Slot)
}

// Unpack decodes an index previously encoded with Pack.
func Unpack(v uint64) Index {
	return Index{Slot: uint32(v), Generation: uint32(v >> 32)}
}

// entry is a single slot in the arena. A slot is vacant when occupied is
// false; vacant slots are chained through the free list by slot number.
type entry[V any] struct {
	value      V
	generation uint32
	occupied   bool
}

// Arena is a generational arena of values of type V. The zero Arena is
// empty and ready to use.
type Arena[V any] struct {
	entries    []entry[V]
	free       []uint32 // vacant slots, most recently freed last
	generation uint32   // bumped on every removal
	length     int
}

// New creates an empty arena.
func New[V any]() *Arena[V] {
	return &Arena[V]{generation: 1}
}

// WithCapacity creates an empty arena with preallocated storage.
func WithCapacity[V any](capacity int) *Arena[V] {
	return &Arena[V]{
		entries:    make([]entry[V], 0, capacity),
		generation: 1,
	}
}

// Len returns the number of occupied slots.
func (a *Arena[V]) Len() int {
	return a.length
}

// Insert adds a value and returns its index. A vacant slot is reused when
// one is available; otherwise the backing storage grows.
func (a *Arena[V]) Insert(value V) Index {
	// Generations start at 1 so an issued index never packs to the zero
	// "no entry" sentinel.
	if a.generation == 0 {
		a.generation = 1
	}

	var slot uint32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.entries = append(a.entries, entry[V]{})
		slot = uint32(len(a.entries) - 1)
	}

	a.entries[slot] = entry[V]{
		value:      value,
		generation: a.generation,
		occupied:   true,
	}
	a.length++

	return Index{Slot: slot, Generation: a.generation}
}

// Get returns the value at the given index. The second result is false when
// the index is out of range, vacant, or from an older generation.
func (a *Arena[V]) Get(index Index) (V, bool) {
	if e := a.lookup(index); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Set replaces the value at the given index, leaving the generation intact.
// It reports whether the index resolved to a live entry.
func (a *Arena[V]) Set(index Index, value V) bool {
	if e := a.lookup(index); e != nil {
		e.value = value
		return true
	}
	return false
}

// Contains reports whether the index resolves to a live entry.
func (a *Arena[V]) Contains(index Index) bool {
	return a.lookup(index) != nil
}

// Remove takes the value at the given index out of the arena and frees its
// slot. It returns false if the index is stale or vacant, in which case the
// arena is left untouched. A successful removal bumps the generation
// counter, permanently invalidating the removed index.
func (a *Arena[V]) Remove(index Index) (V, bool) {
	e := a.lookup(index)
	if e == nil {
		var zero V
		return zero, false
	}

	value := e.value
	var zero V
	e.value = zero
	e.occupied = false

	a.generation++
	a.free = append(a.free, index.Slot)
	a.length--

	return value, true
}

// Clear removes every entry and rebuilds the free list. The generation
// counter is bumped, not reset: indices issued before a Clear stay invalid
// forever, so stale external handles cannot resolve to unrelated data
// inserted afterwards.
func (a *Arena[V]) Clear() {
	a.free = a.free[:0]
	for slot := range a.entries {
		a.entries[slot] = entry[V]{}
		a.free = append(a.free, uint32(slot))
	}
	a.generation++
	a.length = 0
}

// Each calls fn for every live entry, in slot order. Returning false stops
// the walk. The arena must not be mutated during the walk.
func (a *Arena[V]) Each(fn func(Index, V) bool) {
	for slot := range a.entries {
		e := &a.entries[slot]
		if !e.occupied {
			continue
		}
		idx := Index{Slot: uint32(slot), Generation: e.generation}
		if !fn(idx, e.value) {
			return
		}
	}
}

// lookup resolves an index to its entry, or nil when the index is out of
// range, vacant, or stale.
func (a *Arena[V]) lookup(index Index) *entry[V] {
	if int(index.Slot) >= len(a.entries) {
		return nil
	}
	e := &a.entries[index.Slot]
	if !e.occupied || e.generation != index.Generation {
		return nil
	}
	return e
}
