// Package config centralizes the "global constants" that spec.md's Design
// Notes call out: NUM_CPUS, LOG2_BLOCK_SIZE, LOG2_PAGE_SIZE, DRAM_*, and the
// special register ids. Rather than process-wide compile-time constants (as
// in the original C++), these live on an Environment record constructed
// once at assembly time and passed by reference into every component;
// plug-ins may read it but the simulation core never mutates it after
// construction.
package config

// Special register ids that steer branch-type inference when a trace
// leaves branch_type implicit (spec.md §6, inc/instruction.h).
const (
	RegStackPointer      = 6
	RegFlags             = 25
	RegInstructionPointer = 26
)

// PTEBytes is the width of a page-table entry, used by the PTW's shift-math
// (spec.md §4.5).
const PTEBytes = 8

// Environment is the configuration record injected at environment
// construction (spec.md §9 Design Notes). Every field has a conservative
// default filled in by Default(); Load overlays values from a .env file.
type Environment struct {
	NumCPUs int

	Log2BlockSize int
	Log2PageSize  int

	// DRAM organization and timing (spec.md §4.3).
	DRAMChannels        int
	DRAMRanks           int
	DRAMBanks           int
	DRAMColumns         int
	DRAMRows            int
	DRAMTRP             int
	DRAMTRCD            int
	DRAMTCAS            int
	DRAMTRAS            int
	DRAMFrequencyRatio  float64

	// Write-queue drain watermarks (spec.md §4.3, §9 Open Question;
	// resolved per SPEC_FULL.md §4 as configuration with conservative
	// defaults).
	DRAMWriteQueueCapacity int
	DRAMReadQueueCapacity  int
	DRAMWriteHighWatermark float64
	DRAMWriteLowWatermark  float64

	// Virtual memory / PTW (spec.md §4.5).
	PTEPageSize        uint64
	NumPageTableLevels int
	MinorFaultPenalty  int
	PhysicalFrames     int

	// Out-of-order core widths (spec.md §4.6).
	FetchWidth    int
	DecodeWidth   int
	DecodeLatency int
	ScheduleWidth int
	ExecuteWidth  int
	RetireWidth   int
	ROBSize       int
	LQSize        int
	SQSize        int
}

// Default returns an Environment with the conservative defaults used
// throughout this module's tests, loosely modeled on ChampSim's
// champsim_constants.h and the parameter lists threaded through
// MEMORY_CONTROLLER{}, VirtualMemory{}, and O3_CPU{} in the original
// source's test fixtures (test/602-asid-isolation.cc, test/300-retire-from-rob.cc).
func Default() *Environment {
	return &Environment{
		NumCPUs: 1,

		Log2BlockSize: 6,
		Log2PageSize:  12,

		DRAMChannels:       1,
		DRAMRanks:          1,
		DRAMBanks:          8,
		DRAMColumns:        1 << 10,
		DRAMRows:           1 << 16,
		DRAMTRP:            13,
		DRAMTRCD:           13,
		DRAMTCAS:           13,
		DRAMTRAS:           35,
		DRAMFrequencyRatio: 1.0,

		DRAMWriteQueueCapacity: 64,
		DRAMReadQueueCapacity:  64,
		DRAMWriteHighWatermark: 0.6,
		DRAMWriteLowWatermark:  0.4,

		PTEPageSize:        4096,
		NumPageTableLevels:  5,
		MinorFaultPenalty:  200,
		PhysicalFrames:     1 << 16,

		FetchWidth:    4,
		DecodeWidth:   4,
		DecodeLatency: 1,
		ScheduleWidth: 2,
		ExecuteWidth:  4,
		RetireWidth:   2,
		ROBSize:       128,
		LQSize:        32,
		SQSize:        32,
	}
}
