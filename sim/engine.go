package sim

// Engine is the discrete-event-free scheduler described in spec §4.1: it
// holds every Operable in a fixed, leaves-first order and invokes Operate
// on each exactly once per cycle, then commits every registered Advancer so
// writes become visible on the next cycle. There is no priority queue and
// no re-entrancy: this is the "single logical clock" design note, not
// akita's continuous-time event engine.
type Engine struct {
	now       Cycle
	operables []Operable
	advancers []Advancer
}

// NewEngine creates an empty Engine at cycle 0.
func NewEngine() *Engine {
	return &Engine{}
}

// Register appends an operable to the fixed dispatch order. Callers must
// register components leaves-first (memory controller, then caches, then
// cores, then the trace reader) per spec §2's data-flow ordering, so that
// every packet produced in a cycle is visible to its consumer no earlier
// than the next cycle.
func (e *Engine) Register(op Operable) {
	e.operables = append(e.operables, op)
}

// RegisterAdvancer adds a Queue (or other Advancer) to the set committed at
// the end of every cycle.
func (e *Engine) RegisterAdvancer(a Advancer) {
	e.advancers = append(e.advancers, a)
}

// CurrentCycle returns the cycle counter.
func (e *Engine) CurrentCycle() Cycle {
	return e.now
}

// Tick runs one full cycle: every operable whose MinCycle divides the
// current cycle is invoked once, in registration order, then every
// registered Advancer commits its buffered writes, then the clock
// increments. It returns whether any operable reported progress.
func (e *Engine) Tick() bool {
	madeProgress := false

	for _, op := range e.operables {
		scale := op.MinCycle()
		if scale <= 0 {
			scale = 1
		}

		if int(e.now)%scale != 0 {
			continue
		}

		if op.Operate(e.now) {
			madeProgress = true
		}
	}

	for _, a := range e.advancers {
		a.Advance()
	}

	e.now++

	return madeProgress
}

// Run advances the engine until either maxCycles have elapsed or a full
// cycle makes no progress on any operable, whichever comes first. It
// returns the number of cycles actually run.
func (e *Engine) Run(maxCycles Cycle) Cycle {
	var ran Cycle
	for ran < maxCycles {
		if !e.Tick() {
			break
		}
		ran++
	}

	return ran
}

// RunCycles advances the engine by exactly n cycles regardless of progress.
// Tests that assert "after N cycles, X has happened" (per spec §8's
// end-to-end scenarios) use this rather than Run.
func (e *Engine) RunCycles(n Cycle) {
	for i := Cycle(0); i < n; i++ {
		e.Tick()
	}
}
