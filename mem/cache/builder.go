package cache

import "github.com/nareshdream/Champ-simulator/config"

// DefaultConfig returns a Config seeded from env's block size and
// conservative cache-dimension defaults, the way mem/cache/builder.go
// seeds a Comp's defaults from its environment before the caller overrides
// specific fields (NumSet, NumWay, MSHRSize, and the latencies are always
// meant to be overridden per cache level).
func DefaultConfig(env *config.Environment, name string) Config {
	return Config{
		Name:          name,
		Log2BlockSize: env.Log2BlockSize,

		NumSet: 64,
		NumWay: 8,

		MSHRSize:    16,
		FillLatency: 10,
		HitLatency:  1,

		MaxReadPerCycle:     2,
		MaxWritePerCycle:    2,
		MaxTagCheckPerCycle: 2,

		PrefetchDropOccupancy: 0.5,
	}
}
