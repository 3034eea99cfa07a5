package core

import "github.com/nareshdream/Champ-simulator/addr"

// LSQEntry is the `{instr_id, producer_id, virtual_address,
// physical_address, translated, fetched, event_cycle, rob_index}` record
// spec.md §3 describes, shared by both the load queue and the store queue.
// Invariant: Translated implies PhysicalAddress is valid; Fetched implies
// the cache has responded (for a store, that the write was accepted).
type LSQEntry struct {
	InstrID    uint64
	ProducerID int // SQ index a load forwarded from, or -1
	ROBIndex   uint64

	VirtualAddress  addr.Slice
	PhysicalAddress addr.Slice
	Translated      bool
	Fetched         bool
	EventCycle      uint64

	DataReady bool // store only: true once its value is known and forwardable
}

// LSQ is a fixed-capacity FIFO-ish arena for in-flight loads or stores,
// indexed by stable slot rather than a pointer/iterator (spec.md §9).
// Retired or completed entries are freed by index, which may leave holes;
// Push reuses the first free slot.
type LSQ struct {
	capacity int
	slots    []*LSQEntry // nil marks a free slot
}

// NewLSQ builds an empty LSQ with the given capacity.
func NewLSQ(capacity int) *LSQ {
	return &LSQ{capacity: capacity, slots: make([]*LSQEntry, capacity)}
}

// Full reports whether every slot is occupied.
func (q *LSQ) Full() bool {
	for _, s := range q.slots {
		if s == nil {
			return false
		}
	}
	return true
}

// FreeSlots reports how many slots are currently unoccupied, used to check
// up front that every operand of a multi-memory-op instruction has room
// before any of them are pushed (spec.md §4.6 stage 3: "push into LQ/SQ").
func (q *LSQ) FreeSlots() int {
	n := 0
	for _, s := range q.slots {
		if s == nil {
			n++
		}
	}
	return n
}

// Push allocates the first free slot for e, returning its stable index.
// Callers must check Full first.
func (q *LSQ) Push(e *LSQEntry) int {
	for i, s := range q.slots {
		if s == nil {
			q.slots[i] = e
			return i
		}
	}
	panic("core: LSQ push with no free slot; caller must check Full first")
}

// At returns the entry at index, or nil if the slot is free.
func (q *LSQ) At(index int) *LSQEntry {
	return q.slots[index]
}

// Free releases the slot at index.
func (q *LSQ) Free(index int) {
	q.slots[index] = nil
}

// Entries returns every occupied slot's entry alongside its index, in slot
// order. This is NOT program order; callers that need age ordering must
// compare InstrID/ROBIndex themselves.
func (q *LSQ) Entries() []int {
	var out []int
	for i, s := range q.slots {
		if s != nil {
			out = append(out, i)
		}
	}
	return out
}

// FindForwardingStore implements the LSQ forwarding rule (spec.md §4.6):
// a load forwards from the newest in-window store older than it to an identical
// physical address whose data is ready, rather than waiting on the cache.
// sq is the store queue the load searches; loadROBIndex bounds the search
// to stores older than the load in program order.
func FindForwardingStore(sq *LSQ, physicalAddress addr.Slice, loadROBIndex uint64) (int, bool) {
	best := -1
	for _, idx := range sq.Entries() {
		e := sq.At(idx)
		if e.ROBIndex >= loadROBIndex {
			continue
		}
		if !e.Translated || !e.DataReady {
			continue
		}
		if !e.PhysicalAddress.Equal(physicalAddress) {
			continue
		}
		if best == -1 || e.ROBIndex > sq.At(best).ROBIndex {
			best = idx
		}
	}
	return best, best != -1
}
