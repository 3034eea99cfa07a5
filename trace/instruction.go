// Package trace defines the lazy instruction source the core front-end
// pulls from (spec.md §4.7 / C9). Decoding the on-disk standard/cloudsuite
// trace formats is an external collaborator (spec.md §1's non-goals); this
// package specifies only the Reader contract and a slice-backed
// implementation suitable for driving the core in tests.
package trace

// MaxSourceRegisters and MaxSourceMemOps bound the standard trace layout's
// source lists (spec.md §6).
const (
	MaxSourceRegisters = 4
	MaxSourceMemOps    = 4
	MaxDestRegisters   = 4
	MaxDestMemOps      = 4
)

// Instruction is one decoded trace record (spec.md §4.7): an instruction
// pointer, branch metadata, and the register/memory operand lists a
// functional-identity-only simulator needs to model dependencies without
// re-executing the instruction itself (spec.md §1 non-goals: "not a
// functional ISA emulator").
//
// Register id 0 and memory address 0 are sentinel "unused" slots (spec.md
// §6), carried straight through from the trace rather than compacted, so
// absent operands appear as 0 in the operand lists exactly as in the
// source format.
type Instruction struct {
	IP          uint64
	IsBranch    bool
	BranchTaken bool

	SourceRegs []uint8
	DestRegs   []uint8
	SourceMems []uint64
	DestMems   []uint64

	ASID uint16
}

// IsLoad reports whether the instruction reads memory.
func (in Instruction) IsLoad() bool {
	return len(in.SourceMems) > 0
}

// IsStore reports whether the instruction writes memory.
func (in Instruction) IsStore() bool {
	return len(in.DestMems) > 0
}

// WritesSpecialRegister reports whether DestRegs contains id, used by the
// branch-type inference spec.md §6 describes for traces that leave
// branch_type implicit.
func (in Instruction) WritesSpecialRegister(id uint8) bool {
	for _, r := range in.DestRegs {
		if r == id {
			return true
		}
	}
	return false
}

// ReadsSpecialRegister reports whether SourceRegs contains id.
func (in Instruction) ReadsSpecialRegister(id uint8) bool {
	for _, r := range in.SourceRegs {
		if r == id {
			return true
		}
	}
	return false
}
