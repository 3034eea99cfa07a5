package dram_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nareshdream/Champ-simulator/addr"
	"github.com/nareshdream/Champ-simulator/config"
	"github.com/nareshdream/Champ-simulator/mem"
	"github.com/nareshdream/Champ-simulator/mem/dram"
	"github.com/nareshdream/Champ-simulator/sim"
)

func drainReturns(ch *mem.Channel) []uint64 {
	var out []uint64
	for {
		resp, ok := ch.Returns.Pop()
		if !ok {
			break
		}
		out = append(out, resp.CycleEnqueued)
	}
	return out
}

type recordingControllerHook struct {
	seen []sim.HookCtx
}

func (h *recordingControllerHook) Func(ctx sim.HookCtx) {
	h.seen = append(h.seen, ctx)
}

var _ = Describe("Controller", func() {
	var (
		env  *config.Environment
		ch   *mem.Channel
		ctrl *dram.Controller
		eng  *sim.Engine
	)

	BeforeEach(func() {
		env = config.Default()
		env.DRAMChannels = 1
		env.DRAMRanks = 1
		env.DRAMBanks = 4
		env.DRAMColumns = 1

		ch = mem.NewChannel("dram.upstream", 0, 0, 0, 0)
		ctrl = dram.NewController("dram0", env, ch)

		eng = sim.NewEngine()
		eng.RegisterAdvancer(ch)
		eng.Register(ctrl)
	})

	issue := func(bank, row, arrival uint64) {
		full := dram.Compose(env, dram.Fields{Bank: bank, Row: row})
		p := mem.NewPacketBuilder().
			WithType(mem.Load).
			WithAddress(addr.Address(full.Raw())).
			WithCycleEnqueued(arrival).
			Build()
		Expect(ch.Issue(p)).To(BeTrue())
	}

	runUntil := func(n int) []uint64 {
		var got []uint64
		for i := 0; i < n; i++ {
			eng.Tick()
			got = append(got, drainReturns(ch)...)
		}
		return got
	}

	It("fires HookPosCycleStart then HookPosCycleEnd exactly once per Operate", func() {
		hook := &recordingControllerHook{}
		ctrl.AcceptHook(hook)

		eng.Tick()

		Expect(hook.seen).To(HaveLen(2))
		Expect(hook.seen[0].Pos).To(Equal(sim.HookPosCycleStart))
		Expect(hook.seen[1].Pos).To(Equal(sim.HookPosCycleEnd))
	})

	// 701-dram-scheduler.cc's bank-1 stream (row_access/bak_access/arriv_time
	// indices 3,4,5) is this exact scenario: an older-arriving request to a
	// different row is scheduled ahead of a later-arriving row-hit, because
	// selection is oldest-arrival-first — row state only prices the chosen
	// command (DESIGN.md C4). A prior revision of this test asserted the
	// opposite (hit-over-arrival); that was never what the ground truth
	// fixture showed.
	It("schedules the older-arriving request ahead of a later-arriving row-hit on the same bank", func() {
		issue(0, 7, 0) // opens row 7 immediately (bank idle, oldest)
		issue(0, 9, 1) // older arrival, different (closed) row
		issue(0, 7, 2) // later arrival, row-hit once bank0's row is 7 — still younger

		got := runUntil(200)

		Expect(got).To(Equal([]uint64{0, 1, 2}))
	})

	It("ties on row status, then breaks by smallest arrival cycle", func() {
		issue(1, 3, 5)
		issue(1, 3, 1) // same bank, same (still-closed) row, smaller arrival

		got := runUntil(200)

		Expect(got).To(Equal([]uint64{1, 5}))
	})

	It("schedules independent banks without interfering with each other", func() {
		issue(0, 1, 0)
		issue(1, 1, 0)
		issue(2, 1, 0)

		got := runUntil(200)

		Expect(got).To(ConsistOf(uint64(0), uint64(0), uint64(0)))
		Expect(got).To(HaveLen(3))
	})

	It("does not schedule a request before its declared arrival cycle", func() {
		issue(0, 1, 50)

		got := runUntil(10)
		Expect(got).To(BeEmpty())

		got = runUntil(100)
		Expect(got).To(ContainElement(uint64(50)))
	})

	It("drains writes without producing a return packet", func() {
		full := dram.Compose(env, dram.Fields{Bank: 0, Row: 1})
		p := mem.NewPacketBuilder().WithType(mem.Write).WithAddress(addr.Address(full.Raw())).WithCycleEnqueued(0).Build()
		Expect(ch.Issue(p)).To(BeTrue())

		got := runUntil(200)
		Expect(got).To(BeEmpty())
	})

	// spec.md §8 scenario 5, reproduced literally from
	// original_source/test/cpp/src/701-dram-scheduler.cc's dram_test fixture:
	// 21 requests across 7 banks with alternating rows and the given
	// out-of-order arrival sequence must schedule in exactly this order.
	// The fixture hand-traces to plain oldest-arrival-first selection per
	// bank (DESIGN.md's C4 entry) rather than row-hit-prioritized selection.
	It("reproduces the 701-dram-scheduler fixture's FR-FCFS schedule order", func() {
		fixtureEnv := config.Default()
		fixtureEnv.DRAMChannels = 1
		fixtureEnv.DRAMRanks = 1
		fixtureEnv.DRAMBanks = 7
		fixtureEnv.DRAMColumns = 1 << 5

		fixtureCh := mem.NewChannel("dram.fixture", 0, 0, 0, 0)
		fixtureCtrl := dram.NewController("dram-fixture", fixtureEnv, fixtureCh)

		fixtureEng := sim.NewEngine()
		fixtureEng.RegisterAdvancer(fixtureCh)
		fixtureEng.Register(fixtureCtrl)

		rows := []uint64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
		banks := []uint64{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4, 5, 5, 5, 6, 6, 6}
		arrivals := []uint64{3, 4, 2, 0, 1, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 20, 18, 19}
		expected := []uint64{3, 2, 6, 9, 12, 15, 19, 4, 0, 7, 10, 13, 16, 20, 1, 5, 8, 11, 14, 17, 18}

		for i := range rows {
			full := dram.Compose(fixtureEnv, dram.Fields{Bank: banks[i], Row: rows[i]})
			p := mem.NewPacketBuilder().
				WithType(mem.Load).
				WithAddress(addr.Address(full.Raw())).
				WithCycleEnqueued(arrivals[i]).
				WithInstrID(uint64(i)).
				Build()
			Expect(fixtureCh.Issue(p)).To(BeTrue())
		}

		for i := 0; i < 400 && len(fixtureCtrl.ScheduleOrder()) < len(rows); i++ {
			fixtureEng.Tick()
		}

		Expect(fixtureCtrl.ScheduleOrder()).To(Equal(expected))
	})
})
