package core

import "fmt"

// ROB is the reorder buffer: a fixed-capacity, in-order arena of ROBEntry
// indexed by program order (spec.md §3/§4.6). Entries leave only from the
// head, preserving "retire order equals program order" (spec.md invariant
// 6: instr_id strictly increases across retired entries).
type ROB struct {
	capacity int
	entries  []*ROBEntry
	nextID   uint64
}

// NewROB builds an empty ROB of the given capacity.
func NewROB(capacity int) *ROB {
	return &ROB{capacity: capacity}
}

// Len reports how many entries currently occupy the ROB.
func (r *ROB) Len() int { return len(r.entries) }

// Full reports whether the ROB has no room for another entry.
func (r *ROB) Full() bool { return len(r.entries) >= r.capacity }

// Push appends a new entry in program order, assigning it the next
// strictly-increasing instr_id.
func (r *ROB) Push(e *ROBEntry) (uint64, error) {
	if r.Full() {
		return 0, fmt.Errorf("core: ROB at capacity %d", r.capacity)
	}
	e.InstrID = r.nextID
	r.nextID++
	r.entries = append(r.entries, e)
	return e.InstrID, nil
}

// Head returns the oldest (lowest instr_id) entry still in the ROB.
func (r *ROB) Head() (*ROBEntry, bool) {
	if len(r.entries) == 0 {
		return nil, false
	}
	return r.entries[0], true
}

// Entries returns the ROB's entries in program order. Callers must not
// retain the slice past the next mutating call.
func (r *ROB) Entries() []*ROBEntry {
	return r.entries
}

// RetireHead pops the head entry, which must already be retirable; callers
// are responsible for checking Head().retirable() first.
func (r *ROB) RetireHead() *ROBEntry {
	e := r.entries[0]
	r.entries = r.entries[1:]
	return e
}

// Find returns the entry with the given instr_id, if still resident.
func (r *ROB) Find(instrID uint64) (*ROBEntry, bool) {
	for _, e := range r.entries {
		if e.InstrID == instrID {
			return e, true
		}
	}
	return nil, false
}

// FlushAfter discards every entry newer than keepInstrID (exclusive),
// used when a branch resolves as mispredicted (spec.md §4.6: "mispredicts
// flush the front end"). It returns the discarded entries so callers can
// release any LQ/SQ slots they held.
func (r *ROB) FlushAfter(keepInstrID uint64) []*ROBEntry {
	cut := len(r.entries)
	for i, e := range r.entries {
		if e.InstrID > keepInstrID {
			cut = i
			break
		}
	}
	discarded := append([]*ROBEntry(nil), r.entries[cut:]...)
	r.entries = r.entries[:cut]
	r.nextID = keepInstrID + 1
	return discarded
}
