// Package plugin hosts the version-tagged dispatch contracts for the
// simulator's three policy extension points — replacement, prefetcher, and
// branch-predictor modules (spec.md C8). The original source detects which
// signature variant a module implements with compile-time type traits
// (original_source's champsim::is_detected machinery over
// find_victim/prefetcher_cache_operate/predict_branch overloads); spec.md
// §9's "Plugin detection" redesign flag asks for a registration-time
// configuration instead. This package is that redesign: every module
// registers each hook it implements under an explicit Version tag, built
// once into a static HostConfig table (grounded on
// sim/serialization/typeregistry.go's RegisterType/CreateInstance shape —
// map-backed, duplicate registration is a configuration error, no
// reflect-based trait detection).
package plugin

import "fmt"

// HookName identifies one of the hook points a policy module may implement.
type HookName string

const (
	HookFindVictim             HookName = "find_victim"
	HookUpdateReplacementState HookName = "update_replacement_state"
	HookPrefetcherInitialize   HookName = "prefetcher_initialize"
	HookPrefetcherCacheOperate HookName = "prefetcher_cache_operate"
	HookPrefetcherCacheFill    HookName = "prefetcher_cache_fill"
	HookPrefetcherCycleOperate HookName = "prefetcher_cycle_operate"
	HookPrefetcherBranchOperate HookName = "prefetcher_branch_operate"
	HookPrefetcherFinalStats   HookName = "prefetcher_final_stats"
	HookPredictBranch          HookName = "predict_branch"
	HookLastBranchResult       HookName = "last_branch_result"
)

// Version distinguishes which signature variant of a hook a module
// implements, per spec.md §4.8: replacement has two (legacy uint32_t
// access type vs. the access_type enum), the prefetcher's cache-operate
// hook has three historical variants, and the branch predictor's
// predict_branch has two.
type Version int

const (
	// VersionLegacy marks the oldest signature of a hook (e.g. find_victim
	// taking a raw uint32 access type, predict_branch(ip) with no target
	// hint).
	VersionLegacy Version = iota
	// VersionCurrent marks the access_type-enum-based / target-hinted
	// signature that superseded VersionLegacy.
	VersionCurrent
	// VersionExtended marks the prefetcher_cache_operate variant that adds
	// the useful_prefetch flag, the third historical signature spec.md
	// §4.8 calls out.
	VersionExtended
)

// HookBinding is one hook implementation a module registers: its name, the
// signature variant it implements, and the callable itself (always stored
// as interface{} here — the dispatcher type-asserts to the concrete
// function type the HookName/Version pair implies; see replacement.go /
// prefetcher.go / branch.go for those concrete signatures).
type HookBinding struct {
	Name    HookName
	Version Version
	Fn      interface{}
}

// HostConfig is the static table a module's bindings assemble into at
// environment-construction time (spec.md §9's "registration-time
// configuration... static tables built at component assembly" redesign
// note). At most one binding per HookName is accepted per module — a
// second registration for the same hook name is a configuration error,
// exactly as typeRegistry.RegisterType rejects a duplicate type name.
type HostConfig struct {
	ModuleName string
	bindings   map[HookName]HookBinding
}

// NewHostConfig builds an empty, named host configuration for one policy
// module instance (one cache's replacement policy, one cache's prefetcher,
// or one core's branch predictor).
func NewHostConfig(moduleName string) *HostConfig {
	return &HostConfig{
		ModuleName: moduleName,
		bindings:   make(map[HookName]HookBinding),
	}
}

// Register adds a hook binding to the table. It returns an error — a
// configuration error per spec.md §7, surfaced before any cycle runs — if
// a binding for the same HookName has already been registered, mirroring
// spec.md §4.8's "at most one variant per hook must be present per module;
// otherwise the configuration is rejected."
func (h *HostConfig) Register(b HookBinding) error {
	if _, exists := h.bindings[b.Name]; exists {
		return fmt.Errorf("plugin %q: hook %q already registered (duplicate signature variant)", h.ModuleName, b.Name)
	}
	h.bindings[b.Name] = b
	return nil
}

// Lookup returns the binding for name, if the module registered one.
func (h *HostConfig) Lookup(name HookName) (HookBinding, bool) {
	b, ok := h.bindings[name]
	return b, ok
}

// Has reports whether the module registered a binding for name.
func (h *HostConfig) Has(name HookName) bool {
	_, ok := h.bindings[name]
	return ok
}
