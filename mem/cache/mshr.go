package cache

import (
	"fmt"

	"github.com/nareshdream/Champ-simulator/mem"
)

// mshrEntry tracks one outstanding miss: the line address it targets, the
// packet forwarded downstream to fill it, and every waiter merged in on
// coalesce (spec.md §3/§4.4's MSHR invariants).
type mshrEntry struct {
	lineAddress uint64
	request     mem.Packet
}

// MSHR is the Miss-Status Handling Register set: at most one outstanding
// entry per cache-line address (spec.md §8 invariant 4), grounded on
// mem/cache/internal/mshr/mshr.go's Lookup/AddEntry/RemoveEntry/IsFull
// shape, adapted to merge dependency lists on coalesce instead of queueing
// separate waiter requests.
type MSHR struct {
	capacity int
	entries  []mshrEntry
}

// NewMSHR creates an MSHR with the given capacity.
func NewMSHR(capacity int) *MSHR {
	return &MSHR{capacity: capacity}
}

// IsFull reports whether the MSHR has no free entry.
func (m *MSHR) IsFull() bool {
	return len(m.entries) >= m.capacity
}

// OccupancyRatio reports the MSHR's fill fraction, exposed to prefetcher
// modules via get_mshr_occupancy_ratio (spec.md §4.4).
func (m *MSHR) OccupancyRatio() float64 {
	if m.capacity == 0 {
		return 0
	}
	return float64(len(m.entries)) / float64(m.capacity)
}

func (m *MSHR) find(lineAddress uint64) int {
	for i, e := range m.entries {
		if e.lineAddress == lineAddress {
			return i
		}
	}
	return -1
}

// Lookup reports whether lineAddress already has an outstanding miss.
func (m *MSHR) Lookup(lineAddress uint64) bool {
	return m.find(lineAddress) >= 0
}

// Allocate installs a new MSHR entry for req's line address, returning an
// error if the line is already outstanding (call Coalesce instead) or the
// MSHR is full (the caller must back-pressure, spec.md §4.4).
func (m *MSHR) Allocate(lineAddress uint64, req mem.Packet) error {
	if m.Lookup(lineAddress) {
		return fmt.Errorf("cache: MSHR already has an entry for line 0x%x", lineAddress)
	}
	if m.IsFull() {
		return fmt.Errorf("cache: MSHR is full")
	}

	m.entries = append(m.entries, mshrEntry{lineAddress: lineAddress, request: req})

	return nil
}

// Coalesce merges waiter's dependency lists into the existing entry for
// lineAddress and reports whether an entry was found to merge into.
func (m *MSHR) Coalesce(lineAddress uint64, waiter mem.Packet) bool {
	i := m.find(lineAddress)
	if i < 0 {
		return false
	}

	mem.MergeDependents(&m.entries[i].request, waiter)

	return true
}

// Release removes and returns the entry for lineAddress, once its fill has
// landed and every waiter has been notified.
func (m *MSHR) Release(lineAddress uint64) (mem.Packet, bool) {
	i := m.find(lineAddress)
	if i < 0 {
		return mem.Packet{}, false
	}

	entry := m.entries[i]
	m.entries = append(m.entries[:i], m.entries[i+1:]...)

	return entry.request, true
}

// Len returns the number of outstanding entries.
func (m *MSHR) Len() int {
	return len(m.entries)
}
