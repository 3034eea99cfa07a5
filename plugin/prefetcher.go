package plugin

import "github.com/nareshdream/Champ-simulator/mem"

// PrefetcherCacheOperateLegacyFn is the oldest prefetcher_cache_operate
// signature: no useful_prefetch flag, raw uint32 access type (spec.md
// §4.4/§4.8: "three versions of prefetcher_cache_operate").
type PrefetcherCacheOperateLegacyFn func(addr uint64, ip uint64, cacheHit bool, accessType uint32, metadata uint32) uint32

// PrefetcherCacheOperateFn is the current signature: mem.AccessType, still
// without useful_prefetch.
type PrefetcherCacheOperateFn func(addr uint64, ip uint64, cacheHit bool, accessType mem.AccessType, metadata uint32) uint32

// PrefetcherCacheOperateExtendedFn is the extended signature adding the
// usefulPrefetch flag spec.md §4.4 lists last.
type PrefetcherCacheOperateExtendedFn func(addr uint64, ip uint64, cacheHit bool, usefulPrefetch bool, accessType mem.AccessType, metadata uint32) uint32

// PrefetcherCacheFillFn is prefetcher_cache_fill's signature.
type PrefetcherCacheFillFn func(addr uint64, set, way int, prefetch bool, evictedAddr uint64, metadata uint32) uint32

// PrefetcherInitializeFn, PrefetcherCycleOperateFn,
// PrefetcherBranchOperateFn, and PrefetcherFinalStatsFn have a single
// signature each — spec.md §4.8 only calls out multiple variants for
// find_victim/update_replacement_state/prefetcher_cache_operate/
// predict_branch.
type PrefetcherInitializeFn func()
type PrefetcherCycleOperateFn func()
type PrefetcherBranchOperateFn func(ip uint64, branchType uint8, target uint64)
type PrefetcherFinalStatsFn func()

// PrefetcherHost dispatches to a prefetcher module's registered hooks,
// defaulting missing optional hooks to no-ops per spec.md §4.8
// ("cycle_operate, final_stats, initialize default to no-ops").
type PrefetcherHost struct {
	config *HostConfig
}

// NewPrefetcherHost wraps config, requiring at least prefetcher_cache_fill
// and one prefetcher_cache_operate variant — the two hooks the host must
// call on every fill/access to keep the cache pipeline and the plug-in in
// sync (spec.md §4.4 pipeline stage 5).
func NewPrefetcherHost(config *HostConfig) (*PrefetcherHost, error) {
	if !config.Has(HookPrefetcherCacheOperate) {
		return nil, missingHookError(config.ModuleName, HookPrefetcherCacheOperate)
	}
	if !config.Has(HookPrefetcherCacheFill) {
		return nil, missingHookError(config.ModuleName, HookPrefetcherCacheFill)
	}
	host := &PrefetcherHost{config: config}
	RegisterShutdownHooks(host)
	return host, nil
}

// Initialize calls prefetcher_initialize if registered; it is a no-op
// otherwise.
func (h *PrefetcherHost) Initialize() {
	if b, ok := h.config.Lookup(HookPrefetcherInitialize); ok {
		b.Fn.(PrefetcherInitializeFn)()
	}
}

// CacheOperate dispatches to whichever prefetcher_cache_operate variant is
// registered, synthesizing the missing argument(s) for older variants
// (usefulPrefetch is dropped for VersionLegacy/VersionCurrent modules,
// access type is downcast to uint32 for VersionLegacy).
func (h *PrefetcherHost) CacheOperate(addr, ip uint64, cacheHit, usefulPrefetch bool, accessType mem.AccessType, metadata uint32) uint32 {
	b, _ := h.config.Lookup(HookPrefetcherCacheOperate)

	switch b.Version {
	case VersionLegacy:
		fn := b.Fn.(PrefetcherCacheOperateLegacyFn)
		return fn(addr, ip, cacheHit, uint32(accessType), metadata)
	case VersionExtended:
		fn := b.Fn.(PrefetcherCacheOperateExtendedFn)
		return fn(addr, ip, cacheHit, usefulPrefetch, accessType, metadata)
	default:
		fn := b.Fn.(PrefetcherCacheOperateFn)
		return fn(addr, ip, cacheHit, accessType, metadata)
	}
}

// CacheFill calls prefetcher_cache_fill.
func (h *PrefetcherHost) CacheFill(addr uint64, set, way int, prefetch bool, evictedAddr uint64, metadata uint32) uint32 {
	b, _ := h.config.Lookup(HookPrefetcherCacheFill)
	return b.Fn.(PrefetcherCacheFillFn)(addr, set, way, prefetch, evictedAddr, metadata)
}

// CycleOperate calls prefetcher_cycle_operate if registered.
func (h *PrefetcherHost) CycleOperate() {
	if b, ok := h.config.Lookup(HookPrefetcherCycleOperate); ok {
		b.Fn.(PrefetcherCycleOperateFn)()
	}
}

// BranchOperate calls prefetcher_branch_operate if registered.
func (h *PrefetcherHost) BranchOperate(ip uint64, branchType uint8, target uint64) {
	if b, ok := h.config.Lookup(HookPrefetcherBranchOperate); ok {
		b.Fn.(PrefetcherBranchOperateFn)(ip, branchType, target)
	}
}

// FinalStats calls prefetcher_final_stats if registered. The host
// additionally registers this hook with atexit at build time (§2.4) so it
// fires once at process shutdown even if the owning simulation run never
// calls FinalStats directly.
func (h *PrefetcherHost) FinalStats() {
	if b, ok := h.config.Lookup(HookPrefetcherFinalStats); ok {
		b.Fn.(PrefetcherFinalStatsFn)()
	}
}
