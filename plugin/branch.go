package plugin

// BranchType mirrors the branch_type taxonomy spec.md §6 infers from
// special register ids (direct/indirect jump, direct/indirect call,
// conditional, return).
type BranchType uint8

const (
	BranchNone BranchType = iota
	BranchDirectJump
	BranchIndirectBranch
	BranchConditional
	BranchDirectCall
	BranchIndirectCall
	BranchReturn
	BranchOther
)

// PredictBranchLegacyFn is predict_branch(ip): the oldest branch-predictor
// signature, returning only a taken/not-taken prediction (spec.md §4.6).
type PredictBranchLegacyFn func(ip uint64) bool

// PredictBranchFn is the current signature, additionally taking a
// predicted-target hint, an always-taken hint, and the inferred branch
// type, returning the predicted target address.
type PredictBranchFn func(ip uint64, predictedTarget uint64, alwaysTaken bool, branchType BranchType) uint64

// LastBranchResultFn reports the retired outcome of a branch back to the
// predictor (spec.md §4.6's "at retirement, call last_branch_result").
type LastBranchResultFn func(ip, branchTarget uint64, taken bool, branchType BranchType)

// BranchHost dispatches predict_branch to whichever signature variant a
// branch predictor module registered.
type BranchHost struct {
	config *HostConfig
}

// NewBranchHost wraps config, requiring predict_branch and
// last_branch_result to both be registered.
func NewBranchHost(config *HostConfig) (*BranchHost, error) {
	if !config.Has(HookPredictBranch) {
		return nil, missingHookError(config.ModuleName, HookPredictBranch)
	}
	if !config.Has(HookLastBranchResult) {
		return nil, missingHookError(config.ModuleName, HookLastBranchResult)
	}
	return &BranchHost{config: config}, nil
}

// PredictBranch calls predict_branch. A legacy module receives only ip;
// its "predicted taken" returns the caller's predictedTarget and "not
// taken" returns 0, so callers that pass a non-zero predictedTarget can
// treat a zero return uniformly as "predicted not taken".
func (h *BranchHost) PredictBranch(ip, predictedTarget uint64, alwaysTaken bool, branchType BranchType) uint64 {
	b, _ := h.config.Lookup(HookPredictBranch)

	switch b.Version {
	case VersionLegacy:
		fn := b.Fn.(PredictBranchLegacyFn)
		if fn(ip) {
			return predictedTarget
		}
		return 0
	default:
		fn := b.Fn.(PredictBranchFn)
		return fn(ip, predictedTarget, alwaysTaken, branchType)
	}
}

// LastBranchResult calls last_branch_result.
func (h *BranchHost) LastBranchResult(ip, branchTarget uint64, taken bool, branchType BranchType) {
	b, _ := h.config.Lookup(HookLastBranchResult)
	b.Fn.(LastBranchResultFn)(ip, branchTarget, taken, branchType)
}
