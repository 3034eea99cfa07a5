package mem

import "github.com/nareshdream/Champ-simulator/sim"

// Channel is a bounded FIFO of packets split into four queues by kind, per
// spec.md §4.2. It is the Go shape of the per-link queueing that akita's
// Buffer/Port pair models for a single direction; here one Channel owns all
// four directions a cache or memory controller link needs simultaneously.
// Channel embeds sim.HookableBase so a tracer can observe traffic crossing
// the link at the HookPosIssue/HookPosReturn points, the same instrumentation
// seam every Operable exposes at HookPosCycleStart/HookPosCycleEnd.
type Channel struct {
	sim.HookableBase
	name string

	Reads      *sim.Queue[Packet]
	Writes     *sim.Queue[Packet]
	Prefetches *sim.Queue[Packet]
	Returns    *sim.Queue[Packet]
}

// NewChannel builds a Channel with the given per-queue capacities. A
// capacity of 0 means unbounded, matching sim.Queue's convention.
func NewChannel(name string, readCap, writeCap, prefetchCap, returnCap int) *Channel {
	return &Channel{
		name:       name,
		Reads:      sim.NewQueue[Packet](name+".reads", readCap),
		Writes:     sim.NewQueue[Packet](name+".writes", writeCap),
		Prefetches: sim.NewQueue[Packet](name+".prefetches", prefetchCap),
		Returns:    sim.NewQueue[Packet](name+".returns", returnCap),
	}
}

// Name returns the channel's name.
func (c *Channel) Name() string {
	return c.name
}

// Issue enqueues p onto the queue matching its type, returning false if
// that queue is full (spec.md §4.2's issue(packet) -> bool contract).
func (c *Channel) Issue(p Packet) bool {
	var ok bool
	switch p.Type {
	case Write:
		ok = c.Writes.Push(p)
	case Prefetch:
		ok = c.Prefetches.Push(p)
	default:
		ok = c.Reads.Push(p)
	}
	if ok {
		c.InvokeHook(sim.HookCtx{Domain: c, Pos: sim.HookPosIssue, Item: p})
	}
	return ok
}

// Deliver pushes a completed packet onto the channel's return queue and
// fires HookPosReturn, the channel-level realization of spec.md §4.2's
// "return to waiters" step. Components delivering a response push through
// this method rather than reaching into Returns directly, so the hook
// fires at every real delivery site instead of only some.
func (c *Channel) Deliver(p Packet) bool {
	ok := c.Returns.Push(p)
	if ok {
		c.InvokeHook(sim.HookCtx{Domain: c, Pos: sim.HookPosReturn, Item: p})
	}
	return ok
}

// Advance commits all four queues' staged pushes, making them visible next
// cycle. Channels register their four queues with the engine via this
// method rather than each queue individually, so a Channel is itself a
// sim.Advancer.
func (c *Channel) Advance() {
	c.Reads.Advance()
	c.Writes.Advance()
	c.Prefetches.Advance()
	c.Returns.Advance()
}
