// Package dram models a DRAM memory controller with FR-FCFS bank
// scheduling (spec.md §4.3), grounded on ChampSim's
// original_source/inc/dram_controller.h and address decomposition tests
// (original_source/test/cpp/src/701-dram-scheduler.cc), adapted to this
// module's addr.Slice algebra and Cycle-based Engine.
package dram

import (
	"github.com/nareshdream/Champ-simulator/addr"
	"github.com/nareshdream/Champ-simulator/config"
)

// Fields is the {channel, rank, bank, column, row} decomposition of a
// physical address, low-bits-first after the block offset as spec.md §4.3
// specifies: block-offset | channel | bank | column | rank | row.
type Fields struct {
	Channel uint64
	Rank    uint64
	Bank    uint64
	Column  uint64
	Row     uint64
}

func lg2(n int) int {
	bits := 0
	for v := 1; v < n; v *= 2 {
		bits++
	}
	return bits
}

// Decompose extracts Fields from a full address according to env's DRAM
// organization parameters.
func Decompose(env *config.Environment, full addr.Slice) Fields {
	offset := env.Log2BlockSize

	channelBits := lg2(env.DRAMChannels)
	channel := addr.To[uint64](full.Slice(offset+channelBits, offset))
	offset += channelBits

	bankBits := lg2(env.DRAMBanks)
	bank := addr.To[uint64](full.Slice(offset+bankBits, offset))
	offset += bankBits

	columnBits := lg2(env.DRAMColumns)
	column := addr.To[uint64](full.Slice(offset+columnBits, offset))
	offset += columnBits

	rankBits := lg2(env.DRAMRanks)
	rank := addr.To[uint64](full.Slice(offset+rankBits, offset))
	offset += rankBits

	row := addr.To[uint64](full.Slice(full.Width(), offset))

	return Fields{Channel: channel, Rank: rank, Bank: bank, Column: column, Row: row}
}

// Compose is the inverse of Decompose, used by tests to build request
// addresses from known field values.
func Compose(env *config.Environment, f Fields) addr.Slice {
	offset := env.Log2BlockSize

	channelBits := lg2(env.DRAMChannels)
	channelSlice := addr.NewStatic(offset+channelBits, offset, f.Channel)
	offset += channelBits

	bankBits := lg2(env.DRAMBanks)
	bankSlice := addr.NewStatic(offset+bankBits, offset, f.Bank)
	offset += bankBits

	columnBits := lg2(env.DRAMColumns)
	columnSlice := addr.NewStatic(offset+columnBits, offset, f.Column)
	offset += columnBits

	rankBits := lg2(env.DRAMRanks)
	rankSlice := addr.NewStatic(offset+rankBits, offset, f.Rank)
	offset += rankBits

	rowSlice := addr.NewStatic(addr.Bits, offset, f.Row)

	return addr.Splice(addr.Address(0), rowSlice, rankSlice, columnSlice, bankSlice, channelSlice)
}
