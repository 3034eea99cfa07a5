package plugin

import "github.com/tebeka/atexit"

// RegisterShutdownHooks wires a prefetcher module's optional
// prefetcher_final_stats hook into the process-wide atexit chain, exactly
// the lifecycle the teacher corpus uses atexit for when flushing trace
// writers (tracing/*.go's atexit.Register calls). Stats *emission* itself
// remains the stats-printer collaborator's job (spec.md §1 non-goal); this
// only guarantees the hook fires exactly once at process exit even if the
// driver forgets to call FinalStats directly.
func RegisterShutdownHooks(host *PrefetcherHost) {
	if host == nil {
		return
	}
	atexit.Register(host.FinalStats)
}
