package addr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nareshdream/Champ-simulator/addr"
)

var _ = Describe("Slice", func() {
	It("masks the stored value to the extent width", func() {
		s := addr.NewStatic(4, 0, 0xff)
		Expect(s.Raw()).To(Equal(uint64(0xf)))
	})

	It("round-trips To() against the masked-and-shifted source value", func() {
		full := addr.Address(0xffff_ffff)
		block := full.Slice(full.Width(), 6)

		Expect(addr.To[uint64](block)).To(Equal((0xffff_ffff & ^uint64(0x3f)) >> 6))
	})

	It("panics comparing slices of differing extent", func() {
		a := addr.NewStatic(8, 0, 1)
		b := addr.NewStatic(16, 0, 1)

		Expect(func() { a.Equal(b) }).To(Panic())
	})

	It("panics when To() overflows the target width", func() {
		s := addr.NewStatic(16, 0, 0x1ff)

		Expect(func() { addr.To[uint8](s) }).To(Panic())
	})

	It("wraps Add() modulo the extent width", func() {
		s := addr.NewStatic(4, 0, 0xf)
		Expect(s.Add(1).Raw()).To(Equal(uint64(0)))
	})

	DescribeTable("block_number/page_number example from address.h's doc comment",
		func(logBlockSize int, logPageSize int) {
			full := addr.Address(0xffff_ffff)
			block := addr.BlockNumber(logBlockSize, full)
			page := addr.PageNumber(logPageSize, full)

			Expect(addr.To[uint64](block)).To(Equal(uint64(0x3ff_ffff)))
			Expect(addr.To[uint64](page)).To(Equal(uint64(0xf_ffff)))
		},
		Entry("LOG2_BLOCK_SIZE=6, LOG2_PAGE_SIZE=12", 6, 12),
	)
})

var _ = Describe("Splice", func() {
	It("reconstructs the source address from a full partitioning", func() {
		full := addr.Address(0xdead_beef_1234_5678)
		parts := addr.Partition(full, 8, 16, 32, 48)

		slices := make([]addr.Slice, 0, len(parts))
		slices = append(slices, parts...)

		rebuilt := addr.Splice(slices...)

		Expect(rebuilt.Equal(full)).To(BeTrue())
	})

	It("lets later arguments win on overlap", func() {
		a := addr.NewStatic(8, 0, 0xff)
		b := addr.NewStatic(8, 4, 0x0)

		spliced := addr.Splice(a, b)

		Expect(spliced.Raw()).To(Equal(uint64(0x0f)))
	})

	It("splices page_number and page_offset back into an address", func() {
		pageNum := addr.NewStatic(64, 12, 0xaaa)
		pageOff := addr.NewStatic(12, 0, 0xbbb)

		rebuilt := addr.Splice(pageNum, pageOff)

		Expect(rebuilt.Raw()).To(Equal(uint64(0xaaa_bbb)))
	})
})

var _ = Describe("Offset and UOffset", func() {
	It("computes a signed difference between same-extent slices", func() {
		a := addr.NewStatic(64, 0, 100)
		b := addr.NewStatic(64, 0, 40)

		Expect(addr.Offset(a, b)).To(Equal(int64(60)))
		Expect(addr.Offset(b, a)).To(Equal(int64(-60)))
	})

	It("panics when UOffset's base exceeds other", func() {
		a := addr.NewStatic(64, 0, 100)
		b := addr.NewStatic(64, 0, 40)

		Expect(func() { addr.UOffset(a, b) }).To(Panic())
	})
})
