package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nareshdream/Champ-simulator/trace"
)

var _ = Describe("SliceReader", func() {
	It("yields instructions in order then signals end-of-stream without repeat", func() {
		r := trace.NewSliceReader([]trace.Instruction{{IP: 1}, {IP: 2}}, false)

		in, ok := r.Next()
		Expect(ok).To(BeTrue())
		Expect(in.IP).To(Equal(uint64(1)))

		in, ok = r.Next()
		Expect(ok).To(BeTrue())
		Expect(in.IP).To(Equal(uint64(2)))

		_, ok = r.Next()
		Expect(ok).To(BeFalse())
	})

	It("restarts from the beginning when repeat is true", func() {
		r := trace.NewSliceReader([]trace.Instruction{{IP: 1}, {IP: 2}}, true)

		r.Next()
		r.Next()

		in, ok := r.Next()
		Expect(ok).To(BeTrue())
		Expect(in.IP).To(Equal(uint64(1)), "repeat must restart from the first instruction")
	})
})

var _ = Describe("Instruction", func() {
	It("classifies special-register reads and writes", func() {
		in := trace.Instruction{
			DestRegs:   []uint8{26},
			SourceRegs: []uint8{6, 25},
		}

		Expect(in.WritesSpecialRegister(26)).To(BeTrue())
		Expect(in.ReadsSpecialRegister(6)).To(BeTrue())
		Expect(in.ReadsSpecialRegister(25)).To(BeTrue())
		Expect(in.WritesSpecialRegister(6)).To(BeFalse())
	})

	It("identifies load/store shape from operand lists", func() {
		load := trace.Instruction{SourceMems: []uint64{0x1000}}
		store := trace.Instruction{DestMems: []uint64{0x2000}}
		alu := trace.Instruction{}

		Expect(load.IsLoad()).To(BeTrue())
		Expect(load.IsStore()).To(BeFalse())
		Expect(store.IsStore()).To(BeTrue())
		Expect(alu.IsLoad()).To(BeFalse())
		Expect(alu.IsStore()).To(BeFalse())
	})
})
