package vm

import (
	"github.com/nareshdream/Champ-simulator/addr"
	"github.com/nareshdream/Champ-simulator/config"
	"github.com/nareshdream/Champ-simulator/mem"
	"github.com/nareshdream/Champ-simulator/sim"
)

// lg2 returns the base-2 log of n, rounded up to the nearest integer
// (exact for the powers of two spec.md §4.5's shift-math formula uses).
func lg2(n uint64) int {
	bits := 0
	for v := uint64(1); v < n; v *= 2 {
		bits++
	}
	return bits
}

// LevelShift returns the shift amount for walk level (1-indexed, 1 is the
// level closest to the leaf/page offset) out of numLevels total levels,
// per spec.md §4.5:
//
//	shift(level) = LOG2_PAGE_SIZE + (lg2(pteRatio)) * (level - 1)
//
// where pteRatio = pte_page_size / PTE_BYTES is the fan-out of one
// page-table page.
func LevelShift(log2PageSize int, pteRatio int, level int) int {
	return log2PageSize + lg2(uint64(pteRatio))*(level-1)
}

// LevelOffset extracts the lg2(pteRatio)-bit page-table index for walk
// level (1-indexed) out of full, at the bit position LevelShift reports —
// spec.md §4.5's per-level indexing ("indexing at level l extracts
// lg2(pte_page_size) - lg2(PTE_BYTES) bits starting at that shift"),
// grounded on ChampSim's VirtualMemory::get_offset. original_source's
// test/803-vmem-offset.cc constructs an address whose level-l field holds
// the value l for every level 1..5, the round-trip this mirrors.
func LevelOffset(log2PageSize int, pteRatio int, level int, full addr.Slice) uint64 {
	width := lg2(uint64(pteRatio))
	lo := LevelShift(log2PageSize, pteRatio, level)
	return addr.To[uint64](full.Slice(lo+width, lo))
}

// walkState is which downstream read a translation is currently waiting on.
// Levels count down from numLevels to 1, then the walk completes.
type walkState int

const (
	stateIdle walkState = iota
	stateWalking
	stateComplete
)

// inFlightWalk tracks one translation packet's progress through the
// page-table levels (spec.md §4.5: "States: ISSUED_L_n (n = num_levels ...
// 1) -> COMPLETE -> terminal").
type inFlightWalk struct {
	packet       mem.Packet
	currentLevel int // counts down: numLevels, numLevels-1, ..., 1
	state        walkState
	faulted      bool
	faultCycles  int // remaining minor-fault-penalty cycles to burn before issuing the next read

	// issuedAddr is the page-table address last sent downstream for
	// currentLevel, so completeLevel can match the level's response even
	// though each level now reads a different address (spec.md §4.5).
	issuedAddr addr.Slice
}

// PTW is the page-table-walker operable (spec.md §4.5 / C6). On a
// TRANSLATION packet's arrival it resolves the packet's physical address
// through VirtualMemory and then issues NumPageTableLevels sequential
// downstream reads (one per page-table level) before returning the
// original packet, now carrying its physical address, upstream.
//
// This is the one C6 state machine without a direct teacher analogue
// (mem/vm/pagetable.go is a flat TLB-style cache with no walk pipeline);
// it is built from spec.md §4.5's own formulas and state list, as recorded
// in DESIGN.md.
type PTW struct {
	*sim.ComponentBase

	env        *config.Environment
	vmem       *VirtualMemory
	upstream   *mem.Channel
	downstream *mem.Channel

	inFlight []*inFlightWalk
}

// NewPTW builds a PTW serving translation requests arriving on upstream by
// issuing per-level reads on downstream.
func NewPTW(name string, env *config.Environment, vmem *VirtualMemory, upstream, downstream *mem.Channel) *PTW {
	return &PTW{
		ComponentBase: sim.NewComponentBase(name),
		env:           env,
		vmem:          vmem,
		upstream:      upstream,
		downstream:    downstream,
	}
}

// MinCycle reports the PTW runs every engine cycle.
func (w *PTW) MinCycle() int { return 1 }

// Operate admits newly arrived translation requests, drains completed
// per-level reads from downstream, and issues the next level's read for
// any walk whose current level just completed.
func (w *PTW) Operate(now sim.Cycle) bool {
	w.InvokeHook(sim.HookCtx{Domain: w, Pos: sim.HookPosCycleStart, Item: now})

	progress := false

	for {
		pkt, ok := w.upstream.Reads.Pop()
		if !ok {
			break
		}
		progress = true
		w.admit(pkt)
	}

	for {
		resp, ok := w.downstream.Returns.Pop()
		if !ok {
			break
		}
		progress = true
		w.completeLevel(resp)
	}

	for _, walk := range w.inFlight {
		if walk.state == stateWalking && walk.faultCycles > 0 {
			walk.faultCycles--
			if walk.faultCycles == 0 {
				w.issueLevel(walk, uint64(now))
			}
			progress = true
		}
	}

	w.reapComplete()

	w.InvokeHook(sim.HookCtx{Domain: w, Pos: sim.HookPosCycleEnd, Item: now, Detail: progress})

	return progress
}

// admit starts a new walk: resolve the physical frame (allocating on a
// page-table miss, charging MinorFaultPenalty cycles before the first
// downstream read issues), then begin at the highest level.
func (w *PTW) admit(pkt mem.Packet) {
	ppn, faulted := w.vmem.Translate(pkt.ASID, addr.To[uint64](addr.PageNumber(w.env.Log2PageSize, pkt.VAddress)))

	physical := addr.Splice(
		addr.NewStatic(addr.Bits, w.env.Log2PageSize, ppn),
		addr.PageOffset(w.env.Log2PageSize, pkt.VAddress),
	)
	pkt.Address = physical

	walk := &inFlightWalk{
		packet:       pkt,
		currentLevel: w.env.NumPageTableLevels,
		state:        stateWalking,
		faulted:      faulted,
	}
	if faulted {
		walk.faultCycles = w.vmem.MinorFaultPenalty()
	}

	w.inFlight = append(w.inFlight, walk)

	if walk.faultCycles == 0 {
		w.issueLevel(walk, pkt.CycleEnqueued)
	}
}

// levelAddress builds the page-table address to read for walk's current
// level: the level-l index (LevelOffset, extracted from the translation's
// virtual address) scaled to a PTE_BYTES-wide entry, tagged by level so
// that concurrent levels of the same walk never collide on the same
// downstream address (spec.md §4.5's per-level indexing; this module
// models no actual page-table memory contents, so there is no real
// parent-level PTE to chain through, per spec.md §1's non-goal of not
// being a functional ISA emulator).
func (w *PTW) levelAddress(walk *inFlightWalk) addr.Slice {
	pteRatio := int(w.env.PTEPageSize) / config.PTEBytes
	idx := LevelOffset(w.env.Log2PageSize, pteRatio, walk.currentLevel, walk.packet.VAddress)

	return addr.Splice(
		addr.NewStatic(addr.Bits, addr.Bits-8, uint64(walk.currentLevel)),
		addr.NewStatic(addr.Bits-8, 0, idx*uint64(config.PTEBytes)),
	)
}

// issueLevel sends the downstream read for the walk's current level.
func (w *PTW) issueLevel(walk *inFlightWalk, now uint64) {
	walk.issuedAddr = w.levelAddress(walk)

	req := mem.NewPacketBuilder().
		WithType(mem.Load).
		WithAddress(walk.issuedAddr).
		WithASID(walk.packet.ASID).
		WithCPU(walk.packet.CPU).
		WithCycleEnqueued(now).
		WithFillLevel(uint8(walk.currentLevel)).
		Build()

	w.downstream.Issue(req)
}

// completeLevel advances the walk matching resp's level one step closer to
// COMPLETE, issuing the next level's read or finishing the walk.
func (w *PTW) completeLevel(resp mem.Packet) {
	for _, walk := range w.inFlight {
		if walk.state != stateWalking {
			continue
		}
		if uint8(walk.currentLevel) != resp.FillLevel || !walk.issuedAddr.Equal(resp.Address) {
			continue
		}

		walk.currentLevel--
		if walk.currentLevel == 0 {
			walk.state = stateComplete
			return
		}

		w.issueLevel(walk, resp.CycleEnqueued)
		return
	}
}

// reapComplete returns finished walks' original packets upstream and drops
// them from in-flight tracking.
func (w *PTW) reapComplete() {
	remaining := w.inFlight[:0]
	for _, walk := range w.inFlight {
		if walk.state == stateComplete {
			out := walk.packet
			out.Returned = true
			w.upstream.Deliver(out)
			continue
		}
		remaining = append(remaining, walk)
	}
	w.inFlight = remaining
}
