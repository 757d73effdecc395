// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: surface/table.go
// Summary: Generation-counted slot map from surface ids to engine handles.
// Usage: Engines store native surface handles here and hand the id to the host.
// Notes: Not safe for concurrent use; owners provide their own locking.

package surface

const (
	slotBits = 16
	maxSlots = 1 << slotBits
	slotMask = maxSlots - 1
	genMask  = 0x7fff
)

type slot[T any] struct {
	gen  uint16
	live bool
	val  T
}

// Table owns values addressed by non-negative int32 ids. An id is the slot
// index in the low 16 bits and the slot generation above it. Removing a value
// bumps the generation, so the old id never resolves again until the 15-bit
// generation wraps around.
type Table[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// NewTable returns an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

func makeID(index uint32, gen uint16) int32 {
	return int32(uint32(gen&genMask)<<slotBits | index)
}

func splitID(id int32) (uint32, uint16, bool) {
	if id < 0 {
		return 0, 0, false
	}
	return uint32(id) & slotMask, uint16(uint32(id) >> slotBits), true
}

// Insert stores v and returns its id, or -1 when every slot is in use.
func (t *Table[T]) Insert(v T) int32 {
	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		if len(t.slots) >= maxSlots {
			return -1
		}
		index = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{})
	}
	s := &t.slots[index]
	s.live = true
	s.val = v
	t.count++
	return makeID(index, s.gen)
}

func (t *Table[T]) lookup(id int32) *slot[T] {
	index, gen, ok := splitID(id)
	if !ok || int(index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[index]
	if !s.live || s.gen != gen {
		return nil
	}
	return s
}

// Get returns the value for id. Stale and unknown ids report false.
func (t *Table[T]) Get(id int32) (T, bool) {
	if s := t.lookup(id); s != nil {
		return s.val, true
	}
	var zero T
	return zero, false
}

// Remove deletes the value for id and retires the id.
func (t *Table[T]) Remove(id int32) (T, bool) {
	var zero T
	s := t.lookup(id)
	if s == nil {
		return zero, false
	}
	v := s.val
	s.val = zero
	s.live = false
	s.gen = (s.gen + 1) & genMask
	index, _, _ := splitID(id)
	t.free = append(t.free, index)
	t.count--
	return v, true
}

// Len returns the number of live values.
func (t *Table[T]) Len() int {
	return t.count
}

// Each calls fn for every live value in slot order.
func (t *Table[T]) Each(fn func(id int32, v T)) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.live {
			fn(makeID(uint32(i), s.gen), s.val)
		}
	}
}
