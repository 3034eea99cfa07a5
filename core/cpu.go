package core

import (
	"fmt"

	"github.com/nareshdream/Champ-simulator/addr"
	"github.com/nareshdream/Champ-simulator/config"
	"github.com/nareshdream/Champ-simulator/mem"
	"github.com/nareshdream/Champ-simulator/plugin"
	"github.com/nareshdream/Champ-simulator/sim"
	"github.com/nareshdream/Champ-simulator/trace"
)

// Stats are the per-CPU counters spec.md §6 requires be made available to
// the (external) stats printer.
type Stats struct {
	Instructions             uint64
	Cycles                   uint64
	BranchMisses             uint64
	BranchMispredictsPerType [8]uint64
}

// fetchedInstr is a trace instruction pulled from the reader, carrying the
// branch prediction made at fetch time, waiting on its fetch group's
// downstream L1I response.
type fetchedInstr struct {
	instr           trace.Instruction
	predictedTarget uint64
}

// decodeBufEntry is a fetched instruction waiting out decode_latency
// before it may enter the ROB (spec.md §4.6 stage 5).
type decodeBufEntry struct {
	instr           trace.Instruction
	predictedTarget uint64
	enteredAt       uint64
}

// pendingTranslation is keyed by a translation ticket rather than InstrID
// alone, since one instruction's several memory operands each request
// their own translation and share an InstrID.
type pendingTranslation struct {
	instrID uint64
	index   int
	isStore bool
}

// CPU is a single out-of-order core: an operable running the seven stages
// of spec.md §4.6 each cycle, newest-stage-first. It pulls instructions
// from a trace.Reader, predicts branches through a plugin.BranchHost, and
// exchanges memory traffic with an instruction cache, a data cache, and a
// translation path (a PTW's upstream channel) over mem.Channel.
type CPU struct {
	*sim.ComponentBase

	env    *config.Environment
	cpuID  uint32
	reader trace.Reader
	branch *plugin.BranchHost

	l1i *mem.Channel
	l1d *mem.Channel
	mmu *mem.Channel

	rob *ROB
	lq  *LSQ
	sq  *LSQ

	decodeBuf       []decodeBufEntry
	fetchStallUntil uint64

	outstandingFetch map[uint64]bool
	awaitingFetch    map[uint64][]fetchedInstr

	pendingTranslations map[uint64]pendingTranslation
	nextTranslationID   uint64

	// producerOf maps a register id to the instr_id of the most recent
	// in-window writer, the register renaming table spec.md §4.6 stage 4
	// describes as a "producer -> consumer map".
	producerOf map[uint8]uint64

	stats Stats
}

// NewCPU builds a CPU. reader, branch, and all three channels must be
// non-nil (spec.md §7 configuration error).
func NewCPU(name string, env *config.Environment, cpuID uint32, reader trace.Reader, branch *plugin.BranchHost, l1i, l1d, mmu *mem.Channel) (*CPU, error) {
	if reader == nil {
		return nil, fmt.Errorf("core %q: trace reader must not be nil", name)
	}
	if branch == nil {
		return nil, fmt.Errorf("core %q: branch host must not be nil", name)
	}
	if l1i == nil || l1d == nil || mmu == nil {
		return nil, fmt.Errorf("core %q: l1i, l1d, and mmu channels must all be non-nil", name)
	}

	return &CPU{
		ComponentBase:        sim.NewComponentBase(name),
		env:                  env,
		cpuID:                cpuID,
		reader:               reader,
		branch:               branch,
		l1i:                  l1i,
		l1d:                  l1d,
		mmu:                  mmu,
		rob:                  NewROB(env.ROBSize),
		lq:                   NewLSQ(env.LQSize),
		sq:                   NewLSQ(env.SQSize),
		outstandingFetch:     make(map[uint64]bool),
		awaitingFetch:        make(map[uint64][]fetchedInstr),
		pendingTranslations:  make(map[uint64]pendingTranslation),
		producerOf:           make(map[uint8]uint64),
	}, nil
}

// Stats returns a copy of the CPU's current counters.
func (c *CPU) Stats() Stats { return c.stats }

// MinCycle reports the CPU runs every engine cycle.
func (c *CPU) MinCycle() int { return 1 }

// Operate drains pending responses, then runs the seven pipeline stages in
// spec.md §4.6's documented newest-stage-first order.
func (c *CPU) Operate(now sim.Cycle) bool {
	c.InvokeHook(sim.HookCtx{Domain: c, Pos: sim.HookPosCycleStart, Item: now})

	progress := false
	nowU := uint64(now)

	progress = c.drainTranslations(nowU) || progress
	progress = c.drainDataResponses(nowU) || progress
	progress = c.drainFetchResponses(nowU) || progress

	progress = c.retire(nowU) || progress
	progress = c.completeExecution(nowU) || progress
	progress = c.execute(nowU) || progress
	progress = c.schedule(nowU) || progress
	progress = c.decode(nowU) || progress
	progress = c.fetch(nowU) || progress

	c.stats.Cycles++

	c.InvokeHook(sim.HookCtx{Domain: c, Pos: sim.HookPosCycleEnd, Item: now, Detail: progress})

	return progress
}

// retire implements spec.md §4.6 stage 1: pop up to retire_width ROB
// entries that are fully executed, in order.
func (c *CPU) retire(now uint64) bool {
	progress := false
	retired := 0

	for retired < c.env.RetireWidth {
		head, ok := c.rob.Head()
		if !ok || !head.retirable() {
			break
		}

		if !c.issueStoreWritebacks(head, now) {
			break // back-pressure: retire this store once the channel has room for every operand.
		}
		for _, idx := range head.LQIndices {
			c.lq.Free(idx)
		}

		if head.IsBranch {
			branchType := inferBranchType(head.IP, head.DestRegs, head.SourceRegs)
			predictedTaken := head.PredictedTarget != 0
			mispredict := predictedTaken != head.BranchTaken

			c.branch.LastBranchResult(head.IP, head.PredictedTarget, head.BranchTaken, branchType)

			if mispredict {
				head.BranchMispredicted = true
				c.stats.BranchMisses++
				c.stats.BranchMispredictsPerType[branchType]++
				c.flush(head.InstrID, now)
			}
		}

		c.rob.RetireHead()
		c.stats.Instructions++
		retired++
		progress = true
	}

	return progress
}

// issueStoreWritebacks drains head's remaining SQ operands to the data
// cache, one mem.Write packet per store (spec.md §4.6 stage 3: "push into
// LQ/SQ", plural — a read-modify-write retires only once every one of its
// stores has been accepted, not just the first). It returns false on the
// first back-pressured Issue, leaving already-sent writebacks sent and the
// rest of SQIndices for a later cycle's retry.
func (c *CPU) issueStoreWritebacks(head *ROBEntry, now uint64) bool {
	for head.SQWritebackSent < len(head.SQIndices) {
		idx := head.SQIndices[head.SQWritebackSent]
		sqe := c.sq.At(idx)
		wb := mem.NewPacketBuilder().
			WithType(mem.Write).
			WithAddress(sqe.PhysicalAddress).
			WithVAddress(sqe.VirtualAddress).
			WithCPU(c.cpuID).
			WithCycleEnqueued(now).
			WithInstrID(head.InstrID).
			Build()
		if !c.l1d.Issue(wb) {
			return false
		}
		c.sq.Free(idx)
		head.SQWritebackSent++
	}
	return true
}

// flush discards every entry newer than keepInstrID and stalls fetch,
// spec.md §4.6's "mispredicts flush the front end and set a
// fetch_stall_until cycle" (the non-goal at spec.md §1 rules out modeling
// actual speculative state rollback; this only drains the pipeline).
func (c *CPU) flush(keepInstrID uint64, now uint64) {
	discarded := c.rob.FlushAfter(keepInstrID)

	// The discarded entries already hold the real, trace-sourced
	// instructions for this program order — the trace itself is the
	// executed instruction stream, not a speculative one (spec.md §1 non-
	// goal: not a functional ISA emulator, so there is no alternate path
	// to discover). Re-queue them for redecoding rather than losing them,
	// so a misprediction costs pipeline bubbles, not instructions.
	requeued := make([]decodeBufEntry, 0, len(discarded)+len(c.decodeBuf))
	for _, e := range discarded {
		for _, idx := range e.LQIndices {
			c.lq.Free(idx)
		}
		for _, idx := range e.SQIndices {
			c.sq.Free(idx)
		}
		requeued = append(requeued, decodeBufEntry{
			instr: trace.Instruction{
				IP:          e.IP,
				IsBranch:    e.IsBranch,
				BranchTaken: e.BranchTaken,
				SourceRegs:  e.SourceRegs,
				DestRegs:    e.DestRegs,
				SourceMems:  e.SourceMems,
				DestMems:    e.DestMems,
				ASID:        e.ASID,
			},
			predictedTarget: e.PredictedTarget,
			enteredAt:       now,
		})
	}
	for _, d := range c.decodeBuf {
		d.enteredAt = now
		requeued = append(requeued, d)
	}

	c.decodeBuf = requeued
	c.producerOf = make(map[uint8]uint64)

	c.fetchStallUntil = now + 1
}

// completeExecution implements spec.md §4.6 stage 2: any issued ROB entry
// whose event_cycle has elapsed and whose memory ops have all returned
// moves to executed, waking its dependents.
func (c *CPU) completeExecution(now uint64) bool {
	progress := false

	for _, e := range c.rob.Entries() {
		if !e.Issued || e.Executed {
			continue
		}
		if e.EventCycle > now {
			continue
		}
		if !c.memOpsReturned(e) {
			continue
		}

		e.Executed = true
		progress = true

		for _, dep := range e.dependents {
			if d, ok := c.rob.Find(dep); ok && d.WaitCount > 0 {
				d.WaitCount--
			}
		}
		e.dependents = nil
	}

	return progress
}

func (c *CPU) memOpsReturned(e *ROBEntry) bool {
	for _, idx := range e.LQIndices {
		if le := c.lq.At(idx); le == nil || !le.Fetched {
			return false
		}
	}
	for _, idx := range e.SQIndices {
		if se := c.sq.At(idx); se == nil || !se.Translated || !se.DataReady {
			return false
		}
	}
	return true
}

// execute implements spec.md §4.6 stage 3: schedule up to execute_width
// ready entries; every non-sentinel source-mem and dest-mem operand
// (spec.md §3's MaxSourceMemOps/MaxDestMemOps — a single instruction may be
// both a load and a store, e.g. a read-modify-write) enters the LQ/SQ and
// requests translation, then data; register-only ops complete immediately
// (spec.md §1 non-goal: this is not a functional ISA emulator, so no
// execution latency model beyond the memory path is specified).
func (c *CPU) execute(now uint64) bool {
	progress := false
	issued := 0

	for _, e := range c.rob.Entries() {
		if issued >= c.env.ExecuteWidth {
			break
		}
		if !e.Scheduled || e.Issued || e.WaitCount > 0 {
			continue
		}

		loads := nonZeroMems(e.SourceMems)
		stores := nonZeroMems(e.DestMems)

		if len(loads) == 0 && len(stores) == 0 {
			e.EventCycle = now
			e.Issued = true
			issued++
			progress = true
			continue
		}

		// Check room for every operand before pushing any of them, so a
		// multi-operand instruction never issues half its memory ops one
		// cycle and the rest later with no way to undo the first half.
		if len(loads) > c.lq.FreeSlots() || len(stores) > c.sq.FreeSlots() {
			continue
		}

		for _, a := range loads {
			vaddr := addr.Address(a)
			idx := c.lq.Push(&LSQEntry{InstrID: e.InstrID, ProducerID: -1, ROBIndex: e.InstrID, VirtualAddress: vaddr})
			e.LQIndices = append(e.LQIndices, idx)
			c.requestTranslation(e.InstrID, idx, false, vaddr, e.ASID, now)
		}

		for _, a := range stores {
			vaddr := addr.Address(a)
			idx := c.sq.Push(&LSQEntry{InstrID: e.InstrID, ROBIndex: e.InstrID, VirtualAddress: vaddr, DataReady: true})
			e.SQIndices = append(e.SQIndices, idx)
			c.requestTranslation(e.InstrID, idx, true, vaddr, e.ASID, now)
		}

		e.Issued = true
		issued++
		progress = true
	}

	return progress
}

// nonZeroMems filters out spec.md §6's "no mem op" sentinel address 0 from
// a source-mem or dest-mem operand list.
func nonZeroMems(addrs []uint64) []uint64 {
	var out []uint64
	for _, a := range addrs {
		if a != 0 {
			out = append(out, a)
		}
	}
	return out
}

func (c *CPU) requestTranslation(instrID uint64, index int, isStore bool, vaddr addr.Slice, asid uint16, now uint64) {
	ticket := c.nextTranslationID
	c.nextTranslationID++
	c.pendingTranslations[ticket] = pendingTranslation{instrID: instrID, index: index, isStore: isStore}

	req := mem.NewPacketBuilder().
		WithType(mem.Translation).
		WithVAddress(vaddr).
		WithASID(asid).
		WithCPU(c.cpuID).
		WithInstrID(instrID).
		WithData(ticket).
		WithCycleEnqueued(now).
		Build()
	c.mmu.Issue(req)
}

func (c *CPU) drainTranslations(now uint64) bool {
	progress := false

	for {
		resp, ok := c.mmu.Returns.Pop()
		if !ok {
			break
		}
		progress = true

		pt, ok := c.pendingTranslations[resp.Data]
		if !ok {
			continue
		}
		delete(c.pendingTranslations, resp.Data)

		var entry *LSQEntry
		if pt.isStore {
			entry = c.sq.At(pt.index)
		} else {
			entry = c.lq.At(pt.index)
		}
		if entry == nil {
			continue
		}
		entry.PhysicalAddress = resp.Address
		entry.Translated = true

		if !pt.isStore {
			if _, forwarded := FindForwardingStore(c.sq, resp.Address, entry.ROBIndex); forwarded {
				// spec.md §4.6 LSQ rule: forward from the store instead of
				// asking the cache.
				entry.Fetched = true
				if robe, ok := c.rob.Find(pt.instrID); ok {
					robe.EventCycle = now
				}
				continue
			}

			req := mem.NewPacketBuilder().
				WithType(mem.Load).
				WithAddress(resp.Address).
				WithVAddress(entry.VirtualAddress).
				WithCPU(c.cpuID).
				WithInstrID(pt.instrID).
				WithData(uint64(pt.index)).
				WithCycleEnqueued(now).
				Build()
			c.l1d.Issue(req)
		}
	}

	return progress
}

func (c *CPU) drainDataResponses(now uint64) bool {
	progress := false

	for {
		resp, ok := c.l1d.Returns.Pop()
		if !ok {
			break
		}
		progress = true

		if resp.Type == mem.Write {
			// A store's writeback acknowledgement: retirement already
			// freed its SQ slot, nothing left to mark.
			continue
		}

		e := c.lq.At(int(resp.Data))
		if e == nil || e.InstrID != resp.InstrID {
			continue
		}
		e.Fetched = true
		if robe, ok := c.rob.Find(resp.InstrID); ok {
			robe.EventCycle = now
		}
	}

	return progress
}

func (c *CPU) drainFetchResponses(now uint64) bool {
	progress := false

	for {
		resp, ok := c.l1i.Returns.Pop()
		if !ok {
			break
		}
		progress = true

		blockAddr := addr.BlockNumber(c.env.Log2BlockSize, resp.Address).Raw()
		delete(c.outstandingFetch, blockAddr)

		for _, fi := range c.awaitingFetch[blockAddr] {
			c.decodeBuf = append(c.decodeBuf, decodeBufEntry{
				instr:           fi.instr,
				predictedTarget: fi.predictedTarget,
				enteredAt:       now,
			})
		}
		delete(c.awaitingFetch, blockAddr)
	}

	return progress
}

// schedule implements spec.md §4.6 stage 4: move up to schedule_width
// decoded entries whose register producers have all executed into the
// scheduled pool.
func (c *CPU) schedule(now uint64) bool {
	progress := false
	count := 0

	for _, e := range c.rob.Entries() {
		if count >= c.env.ScheduleWidth {
			break
		}
		if !e.Decoded || e.Scheduled || e.WaitCount > 0 {
			continue
		}
		e.Scheduled = true
		count++
		progress = true
	}

	return progress
}

// decode implements spec.md §4.6 stage 5: move up to decode_width
// instructions from the decode buffer into the ROB once decode_latency
// cycles have elapsed, recording register dependencies against the
// in-window producer map.
func (c *CPU) decode(now uint64) bool {
	progress := false
	count := 0

	remaining := c.decodeBuf[:0]
	for _, d := range c.decodeBuf {
		if count >= c.env.DecodeWidth || d.enteredAt+uint64(c.env.DecodeLatency) > now || c.rob.Full() {
			remaining = append(remaining, d)
			continue
		}

		e := &ROBEntry{
			IP:              d.instr.IP,
			IsBranch:        d.instr.IsBranch,
			BranchTaken:     d.instr.BranchTaken,
			PredictedTarget: d.predictedTarget,
			SourceRegs:      d.instr.SourceRegs,
			DestRegs:        d.instr.DestRegs,
			SourceMems:      d.instr.SourceMems,
			DestMems:        d.instr.DestMems,
			ASID:            d.instr.ASID,
			Decoded:         true,
		}

		waitOn := map[uint64]bool{}
		for _, r := range e.SourceRegs {
			if r == 0 {
				continue
			}
			if producer, ok := c.producerOf[r]; ok {
				waitOn[producer] = true
			}
		}

		instrID, err := c.rob.Push(e)
		if err != nil {
			remaining = append(remaining, d)
			break
		}

		for producer := range waitOn {
			if pe, ok := c.rob.Find(producer); ok && !pe.Executed {
				pe.dependents = append(pe.dependents, instrID)
				e.WaitCount++
			}
		}

		for _, r := range e.DestRegs {
			if r != 0 {
				c.producerOf[r] = instrID
			}
		}

		count++
		progress = true
	}
	c.decodeBuf = remaining

	return progress
}

// fetch implements spec.md §4.6 stages 6-7: pull up to fetch_width
// instructions from the trace reader, predict each branch, and issue an
// L1I read per distinct fetch-group address not already outstanding.
func (c *CPU) fetch(now uint64) bool {
	if now < c.fetchStallUntil {
		return false
	}

	progress := false
	count := 0

	for count < c.env.FetchWidth {
		instr, ok := c.reader.Next()
		if !ok {
			break
		}

		var predictedTarget uint64
		if instr.IsBranch {
			branchType := inferBranchType(instr.IP, instr.DestRegs, instr.SourceRegs)
			// instr.IP+1 is a real non-zero placeholder target, not the
			// sentinel 0 retire() reads as "predicted not taken" — a
			// VersionLegacy predictor's bool-only "taken" prediction must
			// round-trip through PredictBranch as this non-zero value
			// (plugin/branch.go's PredictBranch doc comment) or a taken
			// prediction could never be told apart from a not-taken one.
			predictedTarget = c.branch.PredictBranch(instr.IP, instr.IP+1, false, branchType)
		}

		blockAddr := addr.BlockNumber(c.env.Log2BlockSize, addr.Address(instr.IP)).Raw()
		c.awaitingFetch[blockAddr] = append(c.awaitingFetch[blockAddr], fetchedInstr{instr: instr, predictedTarget: predictedTarget})

		if !c.outstandingFetch[blockAddr] {
			c.outstandingFetch[blockAddr] = true
			req := mem.NewPacketBuilder().
				WithType(mem.Load).
				WithAddress(addr.Address(instr.IP)).
				WithCPU(c.cpuID).
				WithCycleEnqueued(now).
				Build()
			c.l1i.Issue(req)
		}

		count++
		progress = true
	}

	return progress
}

// inferBranchType infers a branch_type from the special register ids a
// trace implicitly encodes control flow with (spec.md §6): writes to IP
// alone imply a direct jump; writes to IP and the stack pointer imply a
// call; reads of the stack pointer with a write to IP imply a return.
func inferBranchType(ip uint64, destRegs, sourceRegs []uint8) plugin.BranchType {
	writesIP := containsReg(destRegs, config.RegInstructionPointer)
	writesSP := containsReg(destRegs, config.RegStackPointer)
	readsSP := containsReg(sourceRegs, config.RegStackPointer)

	switch {
	case writesIP && writesSP:
		return plugin.BranchDirectCall
	case writesIP && readsSP:
		return plugin.BranchReturn
	case writesIP:
		return plugin.BranchDirectJump
	default:
		return plugin.BranchConditional
	}
}

func containsReg(regs []uint8, id int) bool {
	for _, r := range regs {
		if int(r) == id {
			return true
		}
	}
	return false
}
