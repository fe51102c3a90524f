package raster

import (
	"github.com/gogpu/compositor/internal/logx"
)

// Backend receives the visibility side effects of the memory budget.
type Backend interface {
	// SetContextVisibility marks the compositing context visible or hidden.
	SetContextVisibility(visible bool)

	// SetShouldAggressivelyFreeResources toggles eager freeing of decoded images.
	SetShouldAggressivelyFreeResources(aggressive bool)
}

// BudgetOption configures a BudgetController.
type BudgetOption func(*BudgetController)

// WithPrepaintPercentage sets the soft limit as a percentage of the hard
// limit. Values outside [0, 100] are clamped.
func WithPrepaintPercentage(pct int) BudgetOption {
	return func(b *BudgetController) {
		b.prepaintPercent = min(max(pct, 0), 100)
	}
}

// BudgetController owns the GlobalTileState and the GPU raster decision.
//
// It is not safe for concurrent use; it runs on the compositor thread.
type BudgetController struct {
	backend         Backend
	prepaintPercent int

	state          GlobalTileState
	policy         MemoryPolicy
	hasPolicy      bool
	visible        bool
	contextVisible bool

	gpu                   GPURasterDecision
	gpuStatusNeedsUpdate  bool
	requiresHighResToDraw bool
	maxMemoryNeededBytes  uint64
}

// NewBudgetController creates a controller. backend may be nil.
// The default prepaint percentage is 100.
func NewBudgetController(backend Backend, opts ...BudgetOption) *BudgetController {
	b := &BudgetController{
		backend:              backend,
		prepaintPercent:      100,
		gpuStatusNeedsUpdate: true,
		state:                GlobalTileState{MemoryLimit: AllowNothing},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ApplyMemoryPolicy recomputes the global tile state.
//
// When invisible, both limits are zero and the policy allows nothing.
// When visible, hard = policy.BytesLimitWhenVisible and soft is the
// prepaint percentage of hard. The resource limit passes through.
// A nonzero hard limit marks the context visible immediately; hiding it is
// deferred to AllTileTasksCompleted.
func (b *BudgetController) ApplyMemoryPolicy(policy MemoryPolicy, visible bool) GlobalTileState {
	b.policy = policy
	b.hasPolicy = true
	b.visible = visible

	b.state.HardLimitBytes = 0
	b.state.SoftLimitBytes = 0
	if visible && policy.BytesLimitWhenVisible > 0 {
		b.state.HardLimitBytes = policy.BytesLimitWhenVisible
		b.state.SoftLimitBytes = policy.BytesLimitWhenVisible * uint64(b.prepaintPercent) / 100
	}

	cutoff := CutoffAllowNothing
	if visible {
		cutoff = policy.PriorityCutoffWhenVisible
	}
	b.state.MemoryLimit = LimitPolicyFor(cutoff)
	b.state.NumResourcesLimit = policy.NumResourcesLimit

	if b.state.HardLimitBytes > 0 {
		b.setContextVisibility(true)
		if b.backend != nil {
			b.backend.SetShouldAggressivelyFreeResources(false)
		}
	}

	logx.L().Debug("raster: memory policy applied", "state", b.state.String(), "visible", visible)
	return b.state
}

// AllTileTasksCompleted finishes a pending transition to invisible once no
// raster work is in flight.
func (b *BudgetController) AllTileTasksCompleted() {
	if b.state.HardLimitBytes != 0 {
		return
	}
	if b.backend != nil {
		b.backend.SetShouldAggressivelyFreeResources(true)
	}
	b.setContextVisibility(false)
}

func (b *BudgetController) setContextVisibility(visible bool) {
	if b.contextVisible == visible {
		return
	}
	b.contextVisible = visible
	if b.backend != nil {
		b.backend.SetContextVisibility(visible)
	}
	logx.L().Info("raster: context visibility changed", "visible", visible)
}

// SetManagedMemoryPolicy installs a new policy and reports whether the
// producer should commit again to make use of it. A commit is skipped when
// both the old and new limits already cover the maximum memory needed and
// the cutoff is unchanged.
func (b *BudgetController) SetManagedMemoryPolicy(policy MemoryPolicy) (needsCommit bool) {
	if b.hasPolicy && b.policy == policy {
		return false
	}
	old := b.policy
	b.ApplyMemoryPolicy(policy, b.visible)

	if b.visible &&
		policy.BytesLimitWhenVisible >= b.maxMemoryNeededBytes &&
		old.BytesLimitWhenVisible >= b.maxMemoryNeededBytes &&
		policy.PriorityCutoffWhenVisible == old.PriorityCutoffWhenVisible {
		return false
	}
	return true
}

// SetMaxMemoryNeeded records the tile manager's estimate of the memory
// required to raster everything.
func (b *BudgetController) SetMaxMemoryNeeded(bytes uint64) {
	b.maxMemoryNeededBytes = bytes
}

// SetTreePriority updates the tree priority in the tile state.
func (b *BudgetController) SetTreePriority(p TreePriority) GlobalTileState {
	b.state.TreePriority = p
	return b.state
}

// State returns the current global tile state.
func (b *BudgetController) State() GlobalTileState { return b.state }

// Policy returns the last applied memory policy.
func (b *BudgetController) Policy() MemoryPolicy { return b.policy }

// ContextVisible reports whether the context is currently marked visible.
func (b *BudgetController) ContextVisible() bool { return b.contextVisible }

// SetNeedsGPURasterizationUpdate marks the GPU decision stale, for example
// after a commit changed content or device caps.
func (b *BudgetController) SetNeedsGPURasterizationUpdate() {
	b.gpuStatusNeedsUpdate = true
}

// UpdateGPURasterizationStatus re-evaluates the decision table if stale.
// It returns true when the GPU or MSAA choice changed. A change requires
// every tile to be re-rastered and sets RequiresHighResToDraw.
func (b *BudgetController) UpdateGPURasterizationStatus(in GPURasterInputs) bool {
	if !b.gpuStatusNeedsUpdate {
		return false
	}
	b.gpuStatusNeedsUpdate = false

	in.CurrentlyUsingGPU = b.gpu.UseGPU
	d := DecideGPURasterization(in)
	prev := b.gpu
	b.gpu.Status = d.Status
	if d.UseGPU == prev.UseGPU && d.UseMSAA == prev.UseMSAA {
		return false
	}
	b.gpu = d
	b.requiresHighResToDraw = true
	logx.L().Info("raster: gpu rasterization changed",
		"status", d.Status.String(), "gpu", d.UseGPU, "msaa", d.UseMSAA)
	return true
}

// GPUDecision returns the current GPU raster decision.
func (b *BudgetController) GPUDecision() GPURasterDecision { return b.gpu }

// SetRequiresHighResToDraw forces the next draw to wait for full
// resolution content.
func (b *BudgetController) SetRequiresHighResToDraw() { b.requiresHighResToDraw = true }

// ResetRequiresHighResToDraw clears the requirement after a successful draw.
func (b *BudgetController) ResetRequiresHighResToDraw() { b.requiresHighResToDraw = false }

// RequiresHighResToDraw reports whether draws must wait for full resolution.
func (b *BudgetController) RequiresHighResToDraw() bool { return b.requiresHighResToDraw }
