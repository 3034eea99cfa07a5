package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nareshdream/Champ-simulator/core"
)

var _ = Describe("ROB", func() {
	It("assigns strictly increasing instr_ids in push order", func() {
		rob := core.NewROB(4)

		id1, err := rob.Push(&core.ROBEntry{IP: 0x100})
		Expect(err).NotTo(HaveOccurred())
		id2, err := rob.Push(&core.ROBEntry{IP: 0x104})
		Expect(err).NotTo(HaveOccurred())

		Expect(id2).To(BeNumerically(">", id1))
	})

	It("rejects a push once at capacity", func() {
		rob := core.NewROB(1)
		_, err := rob.Push(&core.ROBEntry{})
		Expect(err).NotTo(HaveOccurred())

		_, err = rob.Push(&core.ROBEntry{})
		Expect(err).To(HaveOccurred())
	})

	It("retires from the head in program order", func() {
		rob := core.NewROB(4)
		rob.Push(&core.ROBEntry{IP: 1})
		rob.Push(&core.ROBEntry{IP: 2})

		first := rob.RetireHead()
		second := rob.RetireHead()

		Expect(first.IP).To(Equal(uint64(1)))
		Expect(second.IP).To(Equal(uint64(2)))
		Expect(rob.Len()).To(Equal(0))
	})

	It("discards only entries newer than the flush point", func() {
		rob := core.NewROB(4)
		id1, _ := rob.Push(&core.ROBEntry{IP: 1})
		rob.Push(&core.ROBEntry{IP: 2})
		rob.Push(&core.ROBEntry{IP: 3})

		discarded := rob.FlushAfter(id1)

		Expect(discarded).To(HaveLen(2))
		Expect(rob.Len()).To(Equal(1))
	})
})
