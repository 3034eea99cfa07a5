package cache

import "fmt"

// Config holds a cache instance's parameters (spec.md §4.4).
type Config struct {
	Name string

	NumSet int
	NumWay int

	Log2BlockSize int

	MSHRSize    int
	FillLatency int
	HitLatency  int

	MaxReadPerCycle     int
	MaxWritePerCycle    int
	MaxTagCheckPerCycle int

	// VirtualPrefetch mirrors CACHE's virtual_prefetch flag: when true,
	// prefetcher_cache_operate/prefetcher_cache_fill are handed virtual
	// addresses instead of physical ones. PrefetchLine always takes a
	// physical address.
	VirtualPrefetch bool

	// Inclusive mirrors whether a writeback miss allocates an MSHR entry
	// and forwards downstream, or is simply dropped (spec.md §4.4 stage 2
	// "... or drop if non-inclusive per configuration").
	Inclusive bool

	// PrefetchDropOccupancy is the MSHR occupancy fraction beyond which a
	// non-insisting prefetch is dropped rather than allocated (spec.md
	// §4.4 stage 4's "0.5*mshr_size" rule, exposed as configuration).
	PrefetchDropOccupancy float64
}

// Validate returns a configuration error (spec.md §7) for any dimension
// that would make the cache unusable, mirroring mem/cache/builder.go's
// builder-panics-on-bad-config pattern — except here the error is
// returned, not panicked, since it must be caught before any cycle runs.
func (c Config) Validate() error {
	if c.NumSet <= 0 {
		return fmt.Errorf("cache %q: NumSet must be positive, got %d", c.Name, c.NumSet)
	}
	if c.NumWay <= 0 {
		return fmt.Errorf("cache %q: NumWay must be positive, got %d", c.Name, c.NumWay)
	}
	if c.MSHRSize <= 0 {
		return fmt.Errorf("cache %q: MSHRSize must be positive, got %d", c.Name, c.MSHRSize)
	}
	if c.Log2BlockSize <= 0 {
		return fmt.Errorf("cache %q: Log2BlockSize must be positive, got %d", c.Name, c.Log2BlockSize)
	}
	if c.HitLatency < 0 || c.FillLatency < 0 {
		return fmt.Errorf("cache %q: latencies must be non-negative", c.Name)
	}
	return nil
}
