package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/nareshdream/Champ-simulator/config"
	"github.com/nareshdream/Champ-simulator/core"
	"github.com/nareshdream/Champ-simulator/mem"
	"github.com/nareshdream/Champ-simulator/plugin"
	"github.com/nareshdream/Champ-simulator/sim"
	"github.com/nareshdream/Champ-simulator/trace"
)

// echoResponder stubs a memory component the CPU talks to directly in
// these tests: it accepts any read/write and echoes it back on the same
// channel's return queue one cycle later, so these tests exercise the
// core pipeline's wiring without pulling in the cache/DRAM/PTW packages.
type echoResponder struct {
	*sim.ComponentBase
	ch *mem.Channel
}

func newEchoResponder(name string, ch *mem.Channel) *echoResponder {
	return &echoResponder{ComponentBase: sim.NewComponentBase(name), ch: ch}
}

func (e *echoResponder) MinCycle() int { return 1 }

func (e *echoResponder) Operate(now sim.Cycle) bool {
	progress := false
	for _, q := range []*sim.Queue[mem.Packet]{e.ch.Reads, e.ch.Writes} {
		for {
			p, ok := q.Pop()
			if !ok {
				break
			}
			p.Returned = true
			e.ch.Returns.Push(p)
			progress = true
		}
	}
	return progress
}

func noopBranchHost() *plugin.BranchHost {
	cfg := plugin.NewHostConfig("never-taken")
	Expect(cfg.Register(plugin.HookBinding{
		Name:    plugin.HookPredictBranch,
		Version: plugin.VersionLegacy,
		Fn:      plugin.PredictBranchLegacyFn(func(uint64) bool { return false }),
	})).To(Succeed())
	Expect(cfg.Register(plugin.HookBinding{
		Name:    plugin.HookLastBranchResult,
		Version: plugin.VersionCurrent,
		Fn:      plugin.LastBranchResultFn(func(uint64, uint64, bool, plugin.BranchType) {}),
	})).To(Succeed())

	host, err := plugin.NewBranchHost(cfg)
	Expect(err).NotTo(HaveOccurred())
	return host
}

type recordingCPUHook struct {
	seen []sim.HookCtx
}

func (h *recordingCPUHook) Func(ctx sim.HookCtx) {
	h.seen = append(h.seen, ctx)
}

func smallEnv() *config.Environment {
	e := *config.Default()
	e.FetchWidth = 4
	e.DecodeWidth = 4
	e.DecodeLatency = 0
	e.ScheduleWidth = 4
	e.ExecuteWidth = 4
	e.RetireWidth = 4
	e.ROBSize = 16
	e.LQSize = 4
	e.SQSize = 4
	return &e
}

var _ = Describe("CPU", func() {
	var (
		env              *config.Environment
		l1i, l1d, mmu    *mem.Channel
		engine           *sim.Engine
		registerChannels = func(e *sim.Engine, chans ...*mem.Channel) {
			for _, c := range chans {
				e.RegisterAdvancer(c)
			}
		}
	)

	BeforeEach(func() {
		env = smallEnv()
		l1i = mem.NewChannel("core.l1i", 8, 8, 8, 8)
		l1d = mem.NewChannel("core.l1d", 8, 8, 8, 8)
		mmu = mem.NewChannel("core.mmu", 8, 8, 8, 8)
		engine = sim.NewEngine()
		registerChannels(engine, l1i, l1d, mmu)
	})

	It("fires HookPosCycleStart then HookPosCycleEnd exactly once per Operate", func() {
		reader := trace.NewSliceReader([]trace.Instruction{
			{IP: 0x1000, DestRegs: []uint8{1}},
		}, false)

		cpu, err := core.NewCPU("cpu0", env, 0, reader, noopBranchHost(), l1i, l1d, mmu)
		Expect(err).NotTo(HaveOccurred())

		hook := &recordingCPUHook{}
		cpu.AcceptHook(hook)

		engine.Register(newEchoResponder("l1i-mem", l1i))
		engine.Register(cpu)

		engine.Tick()

		Expect(hook.seen).To(HaveLen(2))
		Expect(hook.seen[0].Pos).To(Equal(sim.HookPosCycleStart))
		Expect(hook.seen[1].Pos).To(Equal(sim.HookPosCycleEnd))
	})

	It("retires register-only instructions in order", func() {
		reader := trace.NewSliceReader([]trace.Instruction{
			{IP: 0x1000, DestRegs: []uint8{1}},
			{IP: 0x1004, SourceRegs: []uint8{1}, DestRegs: []uint8{2}},
			{IP: 0x1008, SourceRegs: []uint8{2}, DestRegs: []uint8{3}},
		}, false)

		cpu, err := core.NewCPU("cpu0", env, 0, reader, noopBranchHost(), l1i, l1d, mmu)
		Expect(err).NotTo(HaveOccurred())

		engine.Register(newEchoResponder("l1i-mem", l1i))
		engine.Register(cpu)

		engine.RunCycles(30)

		Expect(cpu.Stats().Instructions).To(Equal(uint64(3)))
	})

	It("forwards a load from an older store to the same address instead of reading the cache", func() {
		reader := trace.NewSliceReader([]trace.Instruction{
			{IP: 0x2000, DestMems: []uint64{0x3000}},
			{IP: 0x2004, SourceMems: []uint64{0x3000}, DestRegs: []uint8{4}},
		}, false)

		cpu, err := core.NewCPU("cpu0", env, 0, reader, noopBranchHost(), l1i, l1d, mmu)
		Expect(err).NotTo(HaveOccurred())

		engine.Register(newEchoResponder("l1i-mem", l1i))
		engine.Register(newEchoResponder("mmu-mem", mmu))
		engine.Register(cpu)

		engine.RunCycles(40)

		Expect(cpu.Stats().Instructions).To(Equal(uint64(2)))
		Expect(l1d.Reads.Len()).To(Equal(0), "the load must forward from the store rather than issuing a cache read")
	})

	It("flushes the pipeline and recovers fetch on a branch misprediction", func() {
		reader := trace.NewSliceReader([]trace.Instruction{
			{IP: 0x4000, IsBranch: true, BranchTaken: true, DestRegs: []uint8{26}},
			{IP: 0x4100, DestRegs: []uint8{5}},
		}, false)

		cpu, err := core.NewCPU("cpu0", env, 0, reader, noopBranchHost(), l1i, l1d, mmu)
		Expect(err).NotTo(HaveOccurred())

		engine.Register(newEchoResponder("l1i-mem", l1i))
		engine.Register(cpu)

		engine.RunCycles(40)

		Expect(cpu.Stats().BranchMisses).To(Equal(uint64(1)), "predicted not-taken but the trace says taken")
		Expect(cpu.Stats().Instructions).To(Equal(uint64(2)), "both instructions eventually retire despite the flush")
	})

	It("pulls exactly one instruction per fetched slot from a mocked reader", func() {
		ctrl := gomock.NewController(GinkgoT())
		reader := trace.NewMockReader(ctrl)

		gomock.InOrder(
			reader.EXPECT().Next().Return(trace.Instruction{IP: 0x5000, DestRegs: []uint8{7}}, true),
			reader.EXPECT().Next().Return(trace.Instruction{}, false).AnyTimes(),
		)

		cpu, err := core.NewCPU("cpu0", env, 0, reader, noopBranchHost(), l1i, l1d, mmu)
		Expect(err).NotTo(HaveOccurred())

		engine.Register(newEchoResponder("l1i-mem", l1i))
		engine.Register(cpu)

		engine.RunCycles(30)

		Expect(cpu.Stats().Instructions).To(Equal(uint64(1)))
	})
})
