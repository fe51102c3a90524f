package raster

import "fmt"

// PriorityCutoff limits which tiles a memory policy allows when visible.
type PriorityCutoff int

const (
	// CutoffAllowNothing allows no tiles.
	CutoffAllowNothing PriorityCutoff = iota

	// CutoffAllowRequiredOnly allows only tiles required to draw or activate.
	CutoffAllowRequiredOnly

	// CutoffAllowNiceToHave allows visible and prepaint tiles.
	CutoffAllowNiceToHave

	// CutoffAllowEverything allows all tiles.
	CutoffAllowEverything
)

// String returns the cutoff name.
func (c PriorityCutoff) String() string {
	switch c {
	case CutoffAllowNothing:
		return "AllowNothing"
	case CutoffAllowRequiredOnly:
		return "AllowRequiredOnly"
	case CutoffAllowNiceToHave:
		return "AllowNiceToHave"
	case CutoffAllowEverything:
		return "AllowEverything"
	default:
		return "Unknown"
	}
}

// MemoryLimitPolicy is the tile manager's view of a PriorityCutoff.
type MemoryLimitPolicy int

const (
	// AllowNothing evicts every tile.
	AllowNothing MemoryLimitPolicy = iota

	// AllowAbsoluteMinimum keeps only required tiles.
	AllowAbsoluteMinimum

	// AllowPrepaintOnly keeps visible tiles and prepaint up to the soft limit.
	AllowPrepaintOnly

	// AllowAnything keeps any tile within the hard limit.
	AllowAnything
)

// String returns the policy name.
func (p MemoryLimitPolicy) String() string {
	switch p {
	case AllowNothing:
		return "AllowNothing"
	case AllowAbsoluteMinimum:
		return "AllowAbsoluteMinimum"
	case AllowPrepaintOnly:
		return "AllowPrepaintOnly"
	case AllowAnything:
		return "AllowAnything"
	default:
		return "Unknown"
	}
}

// LimitPolicyFor maps a cutoff to the tile memory limit policy.
func LimitPolicyFor(c PriorityCutoff) MemoryLimitPolicy {
	switch c {
	case CutoffAllowRequiredOnly:
		return AllowAbsoluteMinimum
	case CutoffAllowNiceToHave:
		return AllowPrepaintOnly
	case CutoffAllowEverything:
		return AllowAnything
	default:
		return AllowNothing
	}
}

// TreePriority tells the tile manager which tree's tiles to favor.
type TreePriority int

const (
	// SamePriorityForBothTrees treats active and pending tiles equally.
	SamePriorityForBothTrees TreePriority = iota

	// SmoothnessTakesPriority favors the active tree (scrolling, pinching).
	SmoothnessTakesPriority

	// NewContentTakesPriority favors the pending tree.
	NewContentTakesPriority
)

// String returns the tree priority name.
func (p TreePriority) String() string {
	switch p {
	case SamePriorityForBothTrees:
		return "SamePriorityForBothTrees"
	case SmoothnessTakesPriority:
		return "SmoothnessTakesPriority"
	case NewContentTakesPriority:
		return "NewContentTakesPriority"
	default:
		return "Unknown"
	}
}

// MemoryPolicy is the memory allocation granted to the pipeline.
type MemoryPolicy struct {
	BytesLimitWhenVisible     uint64         `yaml:"bytes_limit_when_visible" mapstructure:"bytes_limit_when_visible"`
	PriorityCutoffWhenVisible PriorityCutoff `yaml:"priority_cutoff_when_visible" mapstructure:"priority_cutoff_when_visible"`
	NumResourcesLimit         int            `yaml:"num_resources_limit" mapstructure:"num_resources_limit"`
}

// DefaultMemoryPolicy returns a 64 MiB policy allowing everything.
func DefaultMemoryPolicy() MemoryPolicy {
	return MemoryPolicy{
		BytesLimitWhenVisible:     64 << 20,
		PriorityCutoffWhenVisible: CutoffAllowEverything,
		NumResourcesLimit:         10000,
	}
}

// GlobalTileState is the budget snapshot handed to the tile scheduler.
type GlobalTileState struct {
	HardLimitBytes    uint64
	SoftLimitBytes    uint64
	MemoryLimit       MemoryLimitPolicy
	NumResourcesLimit int
	TreePriority      TreePriority
}

// String returns a compact description for logging.
func (s GlobalTileState) String() string {
	return fmt.Sprintf("hard=%d soft=%d policy=%s resources=%d priority=%s",
		s.HardLimitBytes, s.SoftLimitBytes, s.MemoryLimit, s.NumResourcesLimit, s.TreePriority)
}
