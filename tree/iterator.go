package tree

// EntryKind tags an iteration entry.
type EntryKind int

const (
	// EntryTargetSurface is visited before any content drawn into it.
	EntryTargetSurface EntryKind = iota

	// EntryContributingSurface is a child surface composited into Target,
	// visited after the child's own content.
	EntryContributingSurface

	// EntryLayer is a layer drawing its own content into Target.
	EntryLayer
)

func (k EntryKind) String() string {
	switch k {
	case EntryTargetSurface:
		return "TargetSurface"
	case EntryContributingSurface:
		return "ContributingSurface"
	case EntryLayer:
		return "Layer"
	default:
		return "Unknown"
	}
}

// Entry is one step of a front-to-back walk.
type Entry struct {
	Kind  EntryKind
	Layer *Layer

	// Target is the surface the entry draws into. For EntryTargetSurface it
	// is the layer's own surface.
	Target *RenderSurface
}

// ForEachFrontToBack walks the render surface tree front to back. Draw
// properties must be up to date.
func (t *LayerTree) ForEachFrontToBack(fn func(Entry)) {
	rs := t.RootRenderSurface()
	if rs == nil {
		return
	}
	walkSurface(rs, fn)
}

func walkSurface(s *RenderSurface, fn func(Entry)) {
	fn(Entry{Kind: EntryTargetSurface, Layer: s.owner, Target: s})
	for i := len(s.layerList) - 1; i >= 0; i-- {
		l := s.layerList[i]
		if l.surface != nil && l != s.owner {
			walkSurface(l.surface, fn)
			fn(Entry{Kind: EntryContributingSurface, Layer: l, Target: s})
			continue
		}
		fn(Entry{Kind: EntryLayer, Layer: l, Target: s})
	}
}
