// Package vm implements virtual-to-physical address translation and the
// multi-level page-table walker (spec.md §4.5 / C6), grounded on
// mem/vm/pagetable.go's map-backed page table (this module keys by
// (asid, vpn) instead of (pid, vAddr), matching spec.md §3's "Page-table
// state" data model) and spec.md §4.5's own shift-math / fault-policy
// description, which has no direct analogue in the teacher corpus and is
// implemented from spec.md's own formulas (SPEC_FULL.md DESIGN.md entry
// records this as the one C6 detail not grounded on a teacher file).
package vm

import "fmt"

// FreeList is the private pool of physical frames a VirtualMemory draws
// from on a page-table miss (spec.md §3/§4.5). Popping an empty pool is a
// resource-exhaustion fault (spec.md §7) and panics — no swap model is
// defined.
type FreeList struct {
	frames []uint64
	next   int
}

// NewFreeList builds a FreeList of count frames, numbered sequentially
// starting at firstFrame (so callers can reserve low frame numbers for
// page-table roots, per spec.md §3's "first levels page frames of each
// ASID form the root of its page table").
func NewFreeList(firstFrame uint64, count int) *FreeList {
	frames := make([]uint64, count)
	for i := range frames {
		frames[i] = firstFrame + uint64(i)
	}
	return &FreeList{frames: frames}
}

// Pop returns the next physical frame number, panicking if the pool is
// exhausted (spec.md §7 "Resource exhaustion (fatal)").
func (f *FreeList) Pop() uint64 {
	if f.next >= len(f.frames) {
		panic(fmt.Sprintf("vm: physical frame pool exhausted (%d frames)", len(f.frames)))
	}
	frame := f.frames[f.next]
	f.next++
	return frame
}

// Remaining reports how many frames are still available.
func (f *FreeList) Remaining() int {
	return len(f.frames) - f.next
}
