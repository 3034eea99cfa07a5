package vm

import "github.com/nareshdream/Champ-simulator/config"

// Key identifies a page-table entry by address-space id and virtual page
// number (spec.md §3's "A mapping from (asid, virtual_page_number) ->
// physical_page_number").
type Key struct {
	ASID uint16
	VPN  uint64
}

// VirtualMemory owns the (asid, vpn) -> ppn mapping and the free-list of
// physical frames it allocates from on a miss (spec.md §4.5). Different
// ASIDs never share table entries: Key already disambiguates by ASID, so
// two processes mapping the same VPN get independent PPNs.
type VirtualMemory struct {
	env      *config.Environment
	freeList *FreeList

	table map[Key]uint64

	// minorFaults counts allocations performed, for tests/stats — each
	// counts as one minor_fault_penalty charge (spec.md §4.5).
	minorFaults uint64
}

// NewVirtualMemory builds a VirtualMemory that allocates frames from
// freeList. Only leaf mappings draw frames: Translate pops one frame per
// new (asid, vpn). No page-table root or intermediate-level frames are
// allocated or reserved for an ASID.
func NewVirtualMemory(env *config.Environment, freeList *FreeList) *VirtualMemory {
	return &VirtualMemory{
		env:      env,
		freeList: freeList,
		table:    make(map[Key]uint64),
	}
}

// Translate resolves (asid, vpn) to a physical page number, allocating a
// new frame from the free-list on first reference. It returns the PPN and
// whether this call performed a fresh allocation (a minor fault, spec.md
// §4.5) as opposed to returning an already-stable mapping (spec.md §8
// invariant 5: "the mapping to ppn is stable after first allocation").
func (vm *VirtualMemory) Translate(asid uint16, vpn uint64) (ppn uint64, fault bool) {
	key := Key{ASID: asid, VPN: vpn}

	if existing, ok := vm.table[key]; ok {
		return existing, false
	}

	frame := vm.freeList.Pop()
	vm.table[key] = frame
	vm.minorFaults++

	return frame, true
}

// MinorFaults returns the number of allocations performed so far.
func (vm *VirtualMemory) MinorFaults() uint64 {
	return vm.minorFaults
}

// MinorFaultPenalty returns the configured per-fault cycle cost.
func (vm *VirtualMemory) MinorFaultPenalty() int {
	return vm.env.MinorFaultPenalty
}
