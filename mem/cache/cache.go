package cache

import (
	"fmt"

	"github.com/nareshdream/Champ-simulator/addr"
	"github.com/nareshdream/Champ-simulator/mem"
	"github.com/nareshdream/Champ-simulator/plugin"
	"github.com/nareshdream/Champ-simulator/sim"
)

// scheduledResponse is a hit (or landed fill) awaiting its hit_latency
// delay before becoming visible to the requester (spec.md §4.4 stage 3).
type scheduledResponse struct {
	packet  mem.Packet
	readyAt uint64
}

// Cache is a parametric, non-blocking cache operable implementing the
// five-stage pipeline of spec.md §4.4: handle fills, handle writebacks,
// handle reads/RFOs, handle prefetches, invoke prefetcher hooks. It plugs
// into a replacement policy and a prefetcher through the version-dispatch
// hosts of package plugin — this module ships neither policy, per spec.md
// §1's non-goals.
type Cache struct {
	*sim.ComponentBase

	cfg Config

	sets [][]Block

	mshr *MSHR

	upstream   *mem.Channel
	downstream *mem.Channel

	replacement *plugin.ReplacementHost
	prefetcher  *plugin.PrefetcherHost

	pending    []scheduledResponse
	fillBuffer []scheduledFill

	stats Stats
}

// scheduledFill is a landed downstream response waiting out FillLatency
// before being installed into the array (spec.md §4.4's fill_latency
// parameter).
type scheduledFill struct {
	packet  mem.Packet
	request mem.Packet
	readyAt uint64
}

// Stats are the per-cache counters spec.md §6 requires be made available
// to the (external) stats printer: hits/misses/prefetch issued/prefetch
// useful/prefetch filled/MSHR-merged/writebacks.
type Stats struct {
	Hits           uint64
	Misses         uint64
	PrefetchIssued uint64
	PrefetchUseful uint64
	PrefetchFilled uint64
	MSHRMerged     uint64
	Writebacks     uint64
}

// New builds a Cache. It returns an error (spec.md §7 configuration error)
// if cfg fails validation; replacement and prefetcher must both be
// non-nil — a cache with no wired policy cannot make eviction or
// prefetching decisions, so construction without them is itself a
// configuration error.
func New(cfg Config, upstream, downstream *mem.Channel, replacement *plugin.ReplacementHost, prefetcher *plugin.PrefetcherHost) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if replacement == nil {
		return nil, fmt.Errorf("cache %q: replacement host must not be nil", cfg.Name)
	}
	if prefetcher == nil {
		return nil, fmt.Errorf("cache %q: prefetcher host must not be nil", cfg.Name)
	}

	sets := make([][]Block, cfg.NumSet)
	for i := range sets {
		sets[i] = make([]Block, cfg.NumWay)
	}

	return &Cache{
		ComponentBase: sim.NewComponentBase(cfg.Name),
		cfg:           cfg,
		sets:          sets,
		mshr:          NewMSHR(cfg.MSHRSize),
		upstream:      upstream,
		downstream:    downstream,
		replacement:   replacement,
		prefetcher:    prefetcher,
	}, nil
}

// Stats returns a copy of the cache's current counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// MinCycle reports the cache's clock-scale: caches run every engine cycle.
func (c *Cache) MinCycle() int { return 1 }

func (c *Cache) lineAddress(full addr.Slice) uint64 {
	return addr.BlockNumber(c.cfg.Log2BlockSize, full).Raw()
}

func (c *Cache) setIndex(lineAddr uint64) int {
	return int(lineAddr % uint64(c.cfg.NumSet))
}

func (c *Cache) findWay(setIdx int, lineAddr uint64) int {
	for way, b := range c.sets[setIdx] {
		if b.Valid && c.lineAddress(b.Address) == lineAddr {
			return way
		}
	}
	return -1
}

// Operate runs the five pipeline stages in spec.md §4.4's documented
// order, then delivers any response whose hit_latency has elapsed.
func (c *Cache) Operate(now sim.Cycle) bool {
	c.InvokeHook(sim.HookCtx{Domain: c, Pos: sim.HookPosCycleStart, Item: now})

	progress := false

	progress = c.handleFills(uint64(now)) || progress
	progress = c.handleWritebacks(uint64(now)) || progress
	progress = c.handleReads(uint64(now)) || progress
	progress = c.handlePrefetches(uint64(now)) || progress
	c.prefetcher.CycleOperate()
	progress = c.deliverReady(uint64(now)) || progress

	c.InvokeHook(sim.HookCtx{Domain: c, Pos: sim.HookPosCycleEnd, Item: now, Detail: progress})

	return progress
}

func (c *Cache) deliverReady(now uint64) bool {
	progress := false
	remaining := c.pending[:0]

	for _, sr := range c.pending {
		if sr.readyAt <= now {
			sr.packet.Returned = true
			sr.packet.EventCycle = sr.readyAt
			c.upstream.Deliver(sr.packet)
			progress = true
			continue
		}
		remaining = append(remaining, sr)
	}
	c.pending = remaining

	return progress
}

// handleFills implements spec.md §4.4 stage 1. A downstream response first
// waits out FillLatency in the fill buffer, then is installed into the
// array (calling find_victim/update_replacement_state) and every waiter
// merged into its MSHR entry is notified in the same cycle.
func (c *Cache) handleFills(now uint64) bool {
	progress := false

	for {
		resp, ok := c.downstream.Returns.Pop()
		if !ok {
			break
		}
		c.fillBuffer = append(c.fillBuffer, scheduledFill{
			packet:  resp,
			readyAt: now + uint64(c.cfg.FillLatency),
		})
		progress = true
	}

	remaining := c.fillBuffer[:0]
	for _, sf := range c.fillBuffer {
		if sf.readyAt > now {
			remaining = append(remaining, sf)
			continue
		}

		resp := sf.packet
		lineAddr := c.lineAddress(resp.Address)

		req, found := c.mshr.Release(lineAddr)
		if !found {
			// A writeback drained with no waiter (non-allocating
			// writeback-miss forward); nothing further to install for.
			continue
		}

		c.install(lineAddr, resp, now)
		progress = true

		notified := mergePacket(req, resp)
		notified.Returned = true
		notified.EventCycle = now
		c.upstream.Deliver(notified)
	}
	c.fillBuffer = remaining

	return progress
}

func mergePacket(dest mem.Packet, src mem.Packet) mem.Packet {
	mem.MergeDependents(&dest, src)
	dest.Address = src.Address
	dest.Type = src.Type
	return dest
}

// install places resp's line into the array, evicting a victim per the
// replacement host's find_victim and issuing a writeback downstream if the
// victim is dirty (spec.md §4.4 stage 1).
func (c *Cache) install(lineAddr uint64, resp mem.Packet, now uint64) {
	setIdx := c.setIndex(lineAddr)

	// find_victim sees each way as a mem.Packet; an invalid way is a zero
	// Packet (Packet.Valid reports false), a prefetched line has Type
	// Prefetch, and Dirty is not passed.
	setBlocks := make([]mem.Packet, len(c.sets[setIdx]))
	for i, b := range c.sets[setIdx] {
		if !b.Valid {
			continue
		}
		setBlocks[i] = mem.Packet{Address: b.Address, VAddress: b.VAddress, IP: b.IP, CPU: b.CPU, PFMetadata: b.PFMetadata}
		if b.Prefetch {
			setBlocks[i].Type = mem.Prefetch
		}
	}

	way := c.replacement.FindVictim(resp.CPU, resp.InstrID, setIdx, setBlocks, resp.IP, lineAddr, resp.Type)

	victim := c.sets[setIdx][way]
	var victimLineAddr uint64
	if victim.Valid {
		victimLineAddr = c.lineAddress(victim.Address)
	}

	if victim.Valid && victim.Dirty {
		wb := mem.NewPacketBuilder().
			WithType(mem.Write).
			WithAddress(victim.Address).
			WithCPU(victim.CPU).
			WithCycleEnqueued(now).
			Build()
		c.downstream.Issue(wb)
		c.stats.Writebacks++
	}

	pfAddr := lineAddr
	if c.cfg.VirtualPrefetch && resp.VAddress.Raw() != 0 {
		pfAddr = c.lineAddress(resp.VAddress)
	}
	metadata := c.prefetcher.CacheFill(pfAddr, setIdx, way, resp.Type == mem.Prefetch, victimLineAddr, resp.PFMetadata)
	if resp.Type == mem.Prefetch {
		c.stats.PrefetchFilled++
	}

	c.sets[setIdx][way] = Block{
		Valid:      true,
		Prefetch:   resp.Type == mem.Prefetch,
		Dirty:      resp.Type == mem.Write,
		Address:    resp.Address,
		VAddress:   resp.VAddress,
		IP:         resp.IP,
		CPU:        resp.CPU,
		PFMetadata: metadata,
	}

	c.replacement.UpdateReplacementState(resp.CPU, setIdx, way, lineAddr, resp.IP, victimLineAddr, resp.Type, false)
}

// handleWritebacks implements spec.md §4.4 stage 2.
func (c *Cache) handleWritebacks(now uint64) bool {
	progress := false
	count := 0

	for count < c.cfg.MaxWritePerCycle || c.cfg.MaxWritePerCycle == 0 {
		p, ok := c.upstream.Writes.Front()
		if !ok {
			break
		}

		lineAddr := c.lineAddress(p.Address)
		setIdx := c.setIndex(lineAddr)

		if way := c.findWay(setIdx, lineAddr); way >= 0 {
			c.sets[setIdx][way].Dirty = true
			c.upstream.Writes.Pop()
			progress = true
			count++
			continue
		}

		if !c.cfg.Inclusive {
			c.upstream.Writes.Pop()
			progress = true
			count++
			continue
		}

		if c.mshr.Lookup(lineAddr) {
			c.mshr.Coalesce(lineAddr, p)
			c.stats.MSHRMerged++
			c.upstream.Writes.Pop()
			progress = true
			count++
			continue
		}

		if c.mshr.IsFull() {
			break // back-pressure: leave p for a future cycle.
		}

		if err := c.mshr.Allocate(lineAddr, p); err != nil {
			break
		}
		c.downstream.Issue(p)
		c.upstream.Writes.Pop()
		progress = true
		count++
	}

	return progress
}

// handleReads implements spec.md §4.4 stage 3, gated by the tighter of the
// cache's tag-check port and its dedicated read port (spec.md §4.4's
// max_read_per_cycle/max_tag_check_per_cycle parameters).
func (c *Cache) handleReads(now uint64) bool {
	return c.handleAccessQueue(c.upstream.Reads, now, false, minNonZero(c.cfg.MaxTagCheckPerCycle, c.cfg.MaxReadPerCycle))
}

// handlePrefetches implements spec.md §4.4 stage 4 with no dedicated port
// of its own: prefetches are lowest priority by running after reads, and
// are bounded by MaxTagCheckPerCycle on their own — tag checks used by
// reads this cycle are not subtracted.
func (c *Cache) handlePrefetches(now uint64) bool {
	return c.handleAccessQueue(c.upstream.Prefetches, now, true, c.cfg.MaxTagCheckPerCycle)
}

// minNonZero returns the smaller of a and b, treating 0 as "unbounded"
// rather than as the smallest value — matching spec.md §4.4's convention
// that an unset per-cycle limit means no limit at all.
func minNonZero(a, b int) int {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

func (c *Cache) handleAccessQueue(q *sim.Queue[mem.Packet], now uint64, isPrefetch bool, limit int) bool {
	progress := false
	count := 0

	for count < limit || limit == 0 {
		p, ok := q.Front()
		if !ok {
			break
		}

		lineAddr := c.lineAddress(p.Address)
		setIdx := c.setIndex(lineAddr)
		way := c.findWay(setIdx, lineAddr)
		hit := way >= 0

		// virtual_prefetch (spec.md §4.4's Config parameter) drives the
		// prefetcher hooks off the request's virtual address instead of
		// its physical one, when one was supplied; the tag check itself
		// always indexes the physically-addressed array.
		pfAddr := lineAddr
		if c.cfg.VirtualPrefetch && p.VAddress.Raw() != 0 {
			pfAddr = c.lineAddress(p.VAddress)
		}

		useful := hit && c.sets[setIdx][way].Prefetch
		c.prefetcher.CacheOperate(pfAddr, p.IP, hit, useful, p.Type, p.PFMetadata)
		if useful {
			c.stats.PrefetchUseful++
			c.sets[setIdx][way].Prefetch = false
		}

		if hit {
			c.stats.Hits++
			c.replacement.UpdateReplacementState(p.CPU, setIdx, way, lineAddr, p.IP, 0, p.Type, true)

			resp := p
			resp.Address = c.sets[setIdx][way].Address
			c.pending = append(c.pending, scheduledResponse{packet: resp, readyAt: now + uint64(c.cfg.HitLatency)})

			q.Pop()
			progress = true
			count++
			continue
		}

		c.stats.Misses++

		if isPrefetch && c.mshr.OccupancyRatio() > c.cfg.PrefetchDropOccupancy && !p.Insist {
			q.Pop()
			progress = true
			count++
			continue
		}

		if c.mshr.Lookup(lineAddr) {
			c.mshr.Coalesce(lineAddr, p)
			c.stats.MSHRMerged++
			q.Pop()
			progress = true
			count++
			continue
		}

		if c.mshr.IsFull() {
			break // back-pressure
		}

		if err := c.mshr.Allocate(lineAddr, p); err != nil {
			break
		}

		forward := p
		forward.CycleEnqueued = now
		c.downstream.Issue(forward)
		if isPrefetch {
			c.stats.PrefetchIssued++
		}

		q.Pop()
		progress = true
		count++
	}

	return progress
}

// PrefetchLine is the host-provided prefetch_line(addr, fill_this_level,
// metadata) -> bool callback spec.md §4.4 gives prefetcher modules: it
// issues a PREFETCH packet on the cache's own upstream-facing queue as
// though the cache itself requested it, respecting MSHR back-pressure.
func (c *Cache) PrefetchLine(full addr.Slice, fillThisLevel bool, metadata uint32) bool {
	lineAddr := c.lineAddress(full)
	if c.mshr.Lookup(lineAddr) {
		return false
	}
	if c.mshr.IsFull() {
		return false
	}

	p := mem.NewPacketBuilder().
		WithType(mem.Prefetch).
		WithAddress(full).
		Build()
	p.PFMetadata = metadata
	p.FillLevel = boolToUint8(fillThisLevel)

	return c.upstream.Prefetches.Push(p)
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// GetMSHROccupancyRatio is the host-provided get_mshr_occupancy_ratio()
// callback (spec.md §4.4).
func (c *Cache) GetMSHROccupancyRatio() float64 {
	return c.mshr.OccupancyRatio()
}
