// Package mem defines the request packet that flows between every memory
// component (core, caches, TLB/PTW, memory controller) and the bounded
// channel abstraction those components exchange packets over (spec.md C3).
//
// Packet is grounded directly on ChampSim's PACKET struct
// (original_source/inc/block.h): the field names below are the Go spelling
// of that struct, with std::vector<iterator> dependency lists replaced by
// plain integer indices (instr_id / lsq indices) per spec.md §7's "cyclic
// references" guidance — components own their tables and exchange stable
// indices rather than pointers/iterators into each other's storage.
package mem

import "github.com/nareshdream/Champ-simulator/addr"

// AccessType is the access type carried on a Packet (spec.md §4.2).
type AccessType uint8

const (
	Load AccessType = iota
	RFO
	Prefetch
	Write
	Translation
)

func (t AccessType) String() string {
	switch t {
	case Load:
		return "LOAD"
	case RFO:
		return "RFO"
	case Prefetch:
		return "PREFETCH"
	case Write:
		return "WRITE"
	case Translation:
		return "TRANSLATION"
	default:
		return "UNKNOWN"
	}
}

// ASIDNone mirrors PACKET's std::numeric_limits<uint16_t>::max() default,
// meaning "no address space tag yet assigned".
const ASIDNone = ^uint16(0)

// EventCycleNone mirrors PACKET's std::numeric_limits<uint64_t>::max()
// default event_cycle: "not yet scheduled to complete".
const EventCycleNone = ^uint64(0)

// Packet is the envelope exchanged between memory components. Packets are
// passed by value at call sites (copied into queues), matching the
// original's by-value PACKET semantics.
type Packet struct {
	Scheduled bool
	Returned  bool

	Type          AccessType
	FillLevel     uint8
	PFOriginLevel uint8

	ASID uint16

	Delta      int
	Depth      int
	Signature  int
	Confidence int

	PFMetadata uint32
	CPU        uint32

	// Insist mirrors a prefetcher module insisting its request survive
	// MSHR pressure that would otherwise drop it (spec.md §4.4 stage 4).
	Insist bool

	Address       addr.Slice
	VAddress      addr.Slice
	Data          uint64
	InstrID       uint64
	IP            uint64
	EventCycle    uint64
	CycleEnqueued uint64

	TranslationLevel     uint8
	InitTranslationLevel uint8

	// Dependency lists: stable indices into the owning component's own
	// storage, never pointers/iterators into another component's table
	// (spec.md §7).
	LQIndexDependOnMe    []int
	SQIndexDependOnMe    []int
	InstrDependOnMe      []uint64
	ToReturn             []ReturnTarget
}

// ReturnTarget identifies a queue a completed Packet must be delivered back
// to, replacing PACKET's std::vector<MemoryRequestProducer*>.
type ReturnTarget struct {
	Name string
}

// Valid mirrors is_valid<PACKET>: a zero address marks an unused slot in
// pre-sized backing storage, not a real request.
func (p Packet) Valid() bool {
	return p.Address.Raw() != 0
}

// PacketBuilder constructs Packets with the builder pattern used throughout
// the teacher package for message construction (mem/mem/protocol.go's
// ReadReqBuilder/WriteReqBuilder).
type PacketBuilder struct {
	p Packet
}

// NewPacketBuilder starts a builder with the same defaults PACKET's member
// initializers use.
func NewPacketBuilder() PacketBuilder {
	return PacketBuilder{p: Packet{
		ASID:       ASIDNone,
		EventCycle: EventCycleNone,
	}}
}

func (b PacketBuilder) WithType(t AccessType) PacketBuilder {
	b.p.Type = t
	return b
}

func (b PacketBuilder) WithAddress(a addr.Slice) PacketBuilder {
	b.p.Address = a
	return b
}

func (b PacketBuilder) WithVAddress(a addr.Slice) PacketBuilder {
	b.p.VAddress = a
	return b
}

func (b PacketBuilder) WithASID(asid uint16) PacketBuilder {
	b.p.ASID = asid
	return b
}

func (b PacketBuilder) WithCPU(cpu uint32) PacketBuilder {
	b.p.CPU = cpu
	return b
}

func (b PacketBuilder) WithInstrID(id uint64) PacketBuilder {
	b.p.InstrID = id
	return b
}

func (b PacketBuilder) WithIP(ip uint64) PacketBuilder {
	b.p.IP = ip
	return b
}

func (b PacketBuilder) WithCycleEnqueued(cycle uint64) PacketBuilder {
	b.p.CycleEnqueued = cycle
	return b
}

// WithData stamps an opaque ticket a requester uses to match a response
// back to the specific request that produced it, when InstrID alone is
// ambiguous (an instruction with several memory operands issues several
// packets sharing one InstrID).
func (b PacketBuilder) WithData(data uint64) PacketBuilder {
	b.p.Data = data
	return b
}

func (b PacketBuilder) WithFillLevel(level uint8) PacketBuilder {
	b.p.FillLevel = level
	return b
}

func (b PacketBuilder) WithToReturn(targets ...ReturnTarget) PacketBuilder {
	b.p.ToReturn = append([]ReturnTarget{}, targets...)
	return b
}

// Build returns the constructed Packet.
func (b PacketBuilder) Build() Packet {
	return b.p
}

// MergeDependents folds src's dependency lists into dest's, in place,
// deduplicating afterward. Grounded on packet_dep_merge (original_source/inc/block.h):
// the original sorts and uniques the combined list with
// std::inplace_merge + std::unique, which only dedupes ADJACENT equal
// elements and so silently assumes both dest and src already arrive sorted
// — if a caller passes unsorted dependency lists, duplicate entries survive.
// This Go port keeps that exact behavior (§9 Open Question, resolved as
// "preserve the original's sorted-input assumption rather than silently
// paying for a full sort here"): callers that build dependency lists out of
// order get unmerged duplicates, matching the original's behavior bit for
// bit rather than silently fixing it underneath them.
func MergeDependents(dest *Packet, src Packet) {
	dest.LQIndexDependOnMe = mergeInts(dest.LQIndexDependOnMe, src.LQIndexDependOnMe)
	dest.SQIndexDependOnMe = mergeInts(dest.SQIndexDependOnMe, src.SQIndexDependOnMe)
	dest.InstrDependOnMe = mergeUint64s(dest.InstrDependOnMe, src.InstrDependOnMe)
	dest.ToReturn = append(dest.ToReturn, src.ToReturn...)
}

func mergeInts(dest, src []int) []int {
	dest = append(dest, src...)
	return dedupAdjacentInts(dest)
}

func dedupAdjacentInts(s []int) []int {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func mergeUint64s(dest, src []uint64) []uint64 {
	dest = append(dest, src...)
	return dedupAdjacentUint64s(dest)
}

func dedupAdjacentUint64s(s []uint64) []uint64 {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
