package plugin_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nareshdream/Champ-simulator/mem"
	"github.com/nareshdream/Champ-simulator/plugin"
)

var _ = Describe("HostConfig", func() {
	It("rejects a second binding registered for the same hook name", func() {
		cfg := plugin.NewHostConfig("lru")

		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookFindVictim,
			Version: plugin.VersionCurrent,
			Fn:      plugin.FindVictimFn(func(uint32, uint64, int, []mem.Packet, uint64, uint64, mem.AccessType) int { return 0 }),
		})).To(Succeed())

		err := cfg.Register(plugin.HookBinding{
			Name:    plugin.HookFindVictim,
			Version: plugin.VersionLegacy,
			Fn:      plugin.FindVictimLegacyFn(func(uint32, uint64, int, []mem.Packet, uint64, uint64, uint32) int { return 0 }),
		})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ReplacementHost", func() {
	It("dispatches to the legacy find_victim signature, adapting the access_type argument", func() {
		cfg := plugin.NewHostConfig("legacy-lru")
		var seenType uint32
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookFindVictim,
			Version: plugin.VersionLegacy,
			Fn: plugin.FindVictimLegacyFn(func(cpu uint32, instrID uint64, set int, blocks []mem.Packet, ip, fullAddr uint64, accessType uint32) int {
				seenType = accessType
				return 3
			}),
		})).To(Succeed())
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookUpdateReplacementState,
			Version: plugin.VersionLegacy,
			Fn:      plugin.UpdateReplacementStateLegacyFn(func(uint32, int, int, uint64, uint64, uint64, uint32, bool) {}),
		})).To(Succeed())

		host, err := plugin.NewReplacementHost(cfg)
		Expect(err).NotTo(HaveOccurred())

		way := host.FindVictim(0, 1, 0, nil, 0, 0, mem.RFO)
		Expect(way).To(Equal(3))
		Expect(seenType).To(Equal(uint32(mem.RFO)))
	})

	It("errors when a required hook was never registered", func() {
		cfg := plugin.NewHostConfig("incomplete")
		_, err := plugin.NewReplacementHost(cfg)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("PrefetcherHost", func() {
	It("dispatches to the extended cache_operate signature when registered", func() {
		cfg := plugin.NewHostConfig("ext-pf")
		var sawUseful bool
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookPrefetcherCacheOperate,
			Version: plugin.VersionExtended,
			Fn: plugin.PrefetcherCacheOperateExtendedFn(func(addr, ip uint64, hit, useful bool, t mem.AccessType, md uint32) uint32 {
				sawUseful = useful
				return md + 1
			}),
		})).To(Succeed())
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookPrefetcherCacheFill,
			Version: plugin.VersionCurrent,
			Fn:      plugin.PrefetcherCacheFillFn(func(uint64, int, int, bool, uint64, uint32) uint32 { return 0 }),
		})).To(Succeed())

		host, err := plugin.NewPrefetcherHost(cfg)
		Expect(err).NotTo(HaveOccurred())

		got := host.CacheOperate(0x1000, 0x2000, true, true, mem.Load, 7)
		Expect(got).To(Equal(uint32(8)))
		Expect(sawUseful).To(BeTrue())
	})

	It("defaults CycleOperate/FinalStats/Initialize to no-ops when unregistered", func() {
		cfg := plugin.NewHostConfig("minimal-pf")
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookPrefetcherCacheOperate,
			Version: plugin.VersionCurrent,
			Fn:      plugin.PrefetcherCacheOperateFn(func(uint64, uint64, bool, mem.AccessType, uint32) uint32 { return 0 }),
		})).To(Succeed())
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookPrefetcherCacheFill,
			Version: plugin.VersionCurrent,
			Fn:      plugin.PrefetcherCacheFillFn(func(uint64, int, int, bool, uint64, uint32) uint32 { return 0 }),
		})).To(Succeed())

		host, err := plugin.NewPrefetcherHost(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(func() { host.Initialize(); host.CycleOperate(); host.FinalStats() }).NotTo(Panic())
	})
})

var _ = Describe("BranchHost", func() {
	It("maps a legacy true prediction onto the supplied target hint", func() {
		cfg := plugin.NewHostConfig("legacy-bp")
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookPredictBranch,
			Version: plugin.VersionLegacy,
			Fn:      plugin.PredictBranchLegacyFn(func(ip uint64) bool { return true }),
		})).To(Succeed())
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookLastBranchResult,
			Version: plugin.VersionCurrent,
			Fn:      plugin.LastBranchResultFn(func(uint64, uint64, bool, plugin.BranchType) {}),
		})).To(Succeed())

		host, err := plugin.NewBranchHost(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(host.PredictBranch(0x400, 0x500, false, plugin.BranchConditional)).To(Equal(uint64(0x500)))
	})

	It("maps a legacy false prediction to the not-taken sentinel", func() {
		cfg := plugin.NewHostConfig("legacy-bp-nt")
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookPredictBranch,
			Version: plugin.VersionLegacy,
			Fn:      plugin.PredictBranchLegacyFn(func(ip uint64) bool { return false }),
		})).To(Succeed())
		Expect(cfg.Register(plugin.HookBinding{
			Name:    plugin.HookLastBranchResult,
			Version: plugin.VersionCurrent,
			Fn:      plugin.LastBranchResultFn(func(uint64, uint64, bool, plugin.BranchType) {}),
		})).To(Succeed())

		host, err := plugin.NewBranchHost(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(host.PredictBranch(0x400, 0x500, false, plugin.BranchConditional)).To(Equal(uint64(0)))
	})
})
