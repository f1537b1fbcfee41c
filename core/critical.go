package core

// CriticalSection is proof that interrupts are masked. The zero value is
// not a valid section; only Free hands out live ones.
type CriticalSection struct {
	depth uint8
}

// Free runs body with interrupts masked and restores the previous mask
// state when body returns or panics. Sections nest.
func Free(body func(cs CriticalSection)) {
	state, prev := maskInterrupts()
	sectionDepth++
	cs := CriticalSection{depth: sectionDepth}
	defer func() {
		sectionDepth--
		unmaskInterrupts(state, prev)
	}()
	body(cs)
}

// active reports whether cs belongs to a section that is still open.
func (cs CriticalSection) active() bool {
	return cs.depth != 0 && cs.depth <= sectionDepth
}

func (cs CriticalSection) mustBeActive() {
	if !cs.active() {
		panic("core: device state accessed outside a critical section")
	}
}

// Shared is a device-global peripheral that can only be reached while a
// critical section is held.
type Shared[T any] struct {
	v *T
}

// Borrow returns the peripheral. It panics when cs is not a live section,
// which is always a programming error.
func (s *Shared[T]) Borrow(cs CriticalSection) *T {
	cs.mustBeActive()
	return s.v
}
