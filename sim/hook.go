// Package sim provides the operable framework that clocks every hardware
// model in the simulator in lockstep: a fixed, leaves-first dispatch order,
// a single logical cycle counter, and the instrumentation hooks that the
// rest of the module attaches tracing and statistics collection to.
package sim

// HookPos names a point in a component's cycle where a Hook may fire.
type HookPos struct {
	Name string
}

// HookCtx carries the information available at the site a hook fires.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable accepts Hooks that observe its internal events.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	InvokeHook(ctx HookCtx)
}

// Hook is invoked by a Hookable object at a HookPos.
type Hook interface {
	Func(ctx HookCtx)
}

var (
	// HookPosCycleStart marks the start of an operable's per-cycle update.
	HookPosCycleStart = &HookPos{Name: "CycleStart"}
	// HookPosCycleEnd marks the end of an operable's per-cycle update.
	HookPosCycleEnd = &HookPos{Name: "CycleEnd"}
	// HookPosIssue marks a packet being issued onto a channel.
	HookPosIssue = &HookPos{Name: "Issue"}
	// HookPosReturn marks a packet being returned to its waiters.
	HookPosReturn = &HookPos{Name: "Return"}
)

// HookableBase implements Hookable for embedding in components.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of hooks currently registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook runs every registered hook with the given context.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
