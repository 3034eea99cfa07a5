// Package core implements the out-of-order CPU pipeline (spec.md §4.6 /
// C7): fetch, decode, schedule, execute, and retire stages driven by a
// trace.Reader, wired to an instruction cache and a data cache through
// mem.Channel, and to a branch predictor through plugin.BranchHost.
//
// There is no out-of-order analogue in the teacher corpus (sarchlab-akita
// models GPU timing, not a superscalar ROB/LSQ pipeline); this package's
// state-machine shape is built from spec.md §4.6's own stage list and
// §3's ooo_model_instr/LSQ-entry data model, while its construction idiom
// (ComponentBase embedding, Operate dispatch, Stats snapshot) follows
// mem/cache.Cache, as DESIGN.md records.
package core

// ROBEntry is the ooo_model_instr record (spec.md §3): one in-flight
// instruction's pipeline phase flags, branch metadata, and operand lists.
type ROBEntry struct {
	InstrID uint64
	IP      uint64

	IsBranch           bool
	BranchTaken        bool
	PredictedTarget    uint64
	BranchMispredicted bool

	SourceRegs []uint8
	DestRegs   []uint8
	SourceMems []uint64
	DestMems   []uint64

	ASID uint16

	Decoded    bool
	Scheduled  bool
	Issued     bool // dispatched to the execute/memory stage
	Executed   bool
	EventCycle uint64

	// WaitCount is the number of in-window register producers this entry
	// is still waiting on; it may enter the scheduler only once this
	// reaches zero (spec.md §4.6 stage 4's "compute register dependencies
	// against the window").
	WaitCount int

	// LQIndices/SQIndices are stable indices into the owning CPU's LQ/SQ
	// arenas (spec.md §9's cyclic-reference guidance), not pointers. An
	// instruction with several source/dest mem operands (spec.md §3's
	// MaxSourceMemOps/MaxDestMemOps) holds one index per operand in each.
	LQIndices []int
	SQIndices []int

	// SQWritebackSent counts how many of SQIndices have already had their
	// writeback accepted by the data cache at retirement; back-pressure on
	// the channel leaves this short of len(SQIndices) until a later cycle.
	SQWritebackSent int

	// dependents lists instr_ids that must be woken when this entry
	// executes (spec.md §3's "back-reference set of dependent
	// entries").
	dependents []uint64
}

// retirable reports whether e has finished every memory op and been
// marked executed, the precondition for leaving the ROB (spec.md §3).
func (e *ROBEntry) retirable() bool {
	return e.Executed
}

// IsLoad reports whether e reads memory.
func (e *ROBEntry) IsLoad() bool { return len(e.SourceMems) > 0 }

// IsStore reports whether e writes memory.
func (e *ROBEntry) IsStore() bool { return len(e.DestMems) > 0 }
