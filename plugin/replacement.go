package plugin

import "github.com/nareshdream/Champ-simulator/mem"

// FindVictimLegacyFn is the oldest find_victim signature, taking the raw
// uint32 access type ChampSim used before the access_type enum migration
// (spec.md §4.4's replacement plug-in contract, §9's LRU-victim-helper open
// question).
type FindVictimLegacyFn func(cpu uint32, instrID uint64, set int, setBlocks []mem.Packet, ip uint64, fullAddr uint64, accessType uint32) int

// FindVictimFn is the current find_victim signature, using mem.AccessType.
type FindVictimFn func(cpu uint32, instrID uint64, set int, setBlocks []mem.Packet, ip uint64, fullAddr uint64, accessType mem.AccessType) int

// UpdateReplacementStateLegacyFn is the legacy update_replacement_state
// signature (raw uint32 access type).
type UpdateReplacementStateLegacyFn func(cpu uint32, set, way int, fullAddr, ip, victimAddr uint64, accessType uint32, hit bool)

// UpdateReplacementStateFn is the current update_replacement_state
// signature (mem.AccessType).
type UpdateReplacementStateFn func(cpu uint32, set, way int, fullAddr, ip, victimAddr uint64, accessType mem.AccessType, hit bool)

// ReplacementHost dispatches to whichever find_victim/
// update_replacement_state signature variant the wrapped module
// registered, per spec.md §4.8. Exactly one of the two FindVictim
// registrations and one of the two UpdateReplacementState registrations
// may be present; HostConfig.Register rejects a second variant of a hook
// and NewReplacementHost rejects a module offering neither.
type ReplacementHost struct {
	config *HostConfig
}

// NewReplacementHost wraps config, validating that it carries exactly one
// FindVictim variant and exactly one UpdateReplacementState variant — the
// configuration error spec.md §4.8 calls "rejected" when detection would
// otherwise be ambiguous.
func NewReplacementHost(config *HostConfig) (*ReplacementHost, error) {
	if !config.Has(HookFindVictim) {
		return nil, missingHookError(config.ModuleName, HookFindVictim)
	}
	if !config.Has(HookUpdateReplacementState) {
		return nil, missingHookError(config.ModuleName, HookUpdateReplacementState)
	}
	return &ReplacementHost{config: config}, nil
}

func missingHookError(module string, name HookName) error {
	return &hookNotRegisteredError{module: module, name: name}
}

type hookNotRegisteredError struct {
	module string
	name   HookName
}

func (e *hookNotRegisteredError) Error() string {
	return "plugin " + e.module + ": required hook " + string(e.name) + " not registered"
}

// FindVictim calls the registered find_victim variant, adapting the
// access_type-enum call site to a legacy module's uint32 signature
// transparently.
func (h *ReplacementHost) FindVictim(cpu uint32, instrID uint64, set int, setBlocks []mem.Packet, ip, fullAddr uint64, accessType mem.AccessType) int {
	b, _ := h.config.Lookup(HookFindVictim)

	switch b.Version {
	case VersionLegacy:
		fn := b.Fn.(FindVictimLegacyFn)
		return fn(cpu, instrID, set, setBlocks, ip, fullAddr, uint32(accessType))
	default:
		fn := b.Fn.(FindVictimFn)
		return fn(cpu, instrID, set, setBlocks, ip, fullAddr, accessType)
	}
}

// UpdateReplacementState calls the registered update_replacement_state
// variant.
func (h *ReplacementHost) UpdateReplacementState(cpu uint32, set, way int, fullAddr, ip, victimAddr uint64, accessType mem.AccessType, hit bool) {
	b, _ := h.config.Lookup(HookUpdateReplacementState)

	switch b.Version {
	case VersionLegacy:
		fn := b.Fn.(UpdateReplacementStateLegacyFn)
		fn(cpu, set, way, fullAddr, ip, victimAddr, uint32(accessType), hit)
	default:
		fn := b.Fn.(UpdateReplacementStateFn)
		fn(cpu, set, way, fullAddr, ip, victimAddr, accessType, hit)
	}
}
