// Package cache implements the parametric, MSHR-limited non-blocking
// cache pipeline of spec.md §4.4 / C5, grounded on ChampSim's CACHE
// (original_source/inc/cache.h) and its handle_fill/handle_writeback/
// handle_read/handle_prefetch/prefetcher-hook pipeline stages, reshaped
// around this module's sim.Queue/mem.Channel/addr.Slice primitives and the
// version-dispatching plugin.ReplacementHost/plugin.PrefetcherHost plug-in
// points instead of C++ template policies.
package cache

import "github.com/nareshdream/Champ-simulator/addr"

// Block is one cache-line slot (spec.md §3's "Cache block"). Tag/set are
// carried implicitly via Address once installed; PFMetadata is the opaque
// state a prefetcher module round-trips through prefetcher_cache_fill.
type Block struct {
	Valid    bool
	Prefetch bool
	Dirty    bool

	Address  addr.Slice
	VAddress addr.Slice

	IP         uint64
	CPU        uint32
	PFMetadata uint32
}
