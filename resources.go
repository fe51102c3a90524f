package compositor

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/tree"
)

// uiResourceBase keeps UI resource IDs apart from tile and glyph IDs.
const uiResourceBase = 1 << 44

type uiResource struct {
	resourceID uint64
	size       geom.Size
	opaque     bool
}

// uiResourceTable maps producer UI resource IDs to output resources.
type uiResourceTable struct {
	resources map[tree.UIResourceID]uiResource
	evicted   map[tree.UIResourceID]struct{}
	next      uint64
}

func newUIResourceTable() uiResourceTable {
	return uiResourceTable{
		resources: make(map[tree.UIResourceID]uiResource),
		evicted:   make(map[tree.UIResourceID]struct{}),
		next:      uiResourceBase,
	}
}

// CreateUIResource uploads bitmap as UI resource id, replacing an existing
// one. Without an output sink the resource is recorded as evicted and must
// be created again once a sink is set.
func (p *Pipeline) CreateUIResource(id tree.UIResourceID, bitmap tree.UIResourceBitmap) {
	if _, ok := p.ui.resources[id]; ok {
		p.DeleteUIResource(id)
	}
	if p.submitter.Sink() == nil {
		p.ui.evicted[id] = struct{}{}
		return
	}
	p.ui.next++
	p.ui.resources[id] = uiResource{
		resourceID: p.ui.next,
		size:       bitmap.Size,
		opaque:     bitmap.Opaque,
	}
	p.MarkUIResourceNotEvicted(id)
}

// DeleteUIResource drops UI resource id.
func (p *Pipeline) DeleteUIResource(id tree.UIResourceID) {
	delete(p.ui.resources, id)
	p.MarkUIResourceNotEvicted(id)
}

// EvictAllUIResources drops every UI resource. Drawing is blocked until the
// producer recreates them in a new commit.
func (p *Pipeline) EvictAllUIResources() {
	if len(p.ui.resources) == 0 {
		return
	}
	for id := range p.ui.resources {
		p.ui.evicted[id] = struct{}{}
	}
	clear(p.ui.resources)
	logx.L().Warn("compositor: evicted ui resources", "count", len(p.ui.evicted))
	p.SetNeedsCommit()
	p.onCanDrawStateChanged()
}

// MarkUIResourceNotEvicted clears the eviction of id. Drawing resumes once
// no evicted resource is left.
func (p *Pipeline) MarkUIResourceNotEvicted(id tree.UIResourceID) {
	if _, ok := p.ui.evicted[id]; !ok {
		return
	}
	delete(p.ui.evicted, id)
	if len(p.ui.evicted) == 0 {
		p.onCanDrawStateChanged()
	}
}

// EvictedUIResourcesExist reports whether UI resources wait to be recreated.
func (p *Pipeline) EvictedUIResourcesExist() bool { return len(p.ui.evicted) > 0 }

// ResourceIDForUIResource returns the output resource of UI resource id.
func (p *Pipeline) ResourceIDForUIResource(id tree.UIResourceID) (uint64, bool) {
	r, ok := p.ui.resources[id]
	return r.resourceID, ok
}

// UIResourceSize returns the size of UI resource id.
func (p *Pipeline) UIResourceSize(id tree.UIResourceID) (geom.Size, bool) {
	r, ok := p.ui.resources[id]
	return r.size, ok
}

// UIResourceIsOpaque reports whether UI resource id has no transparent
// pixels. Unknown resources are opaque.
func (p *Pipeline) UIResourceIsOpaque(id tree.UIResourceID) bool {
	r, ok := p.ui.resources[id]
	return !ok || r.opaque
}
