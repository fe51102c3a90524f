package frame

import (
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/render"
)

// RemoveRenderPasses drops the non-root passes that draw nothing.
//
// A first walk in draw order removes empty passes along with the quads
// referencing passes that no longer exist. Then unreferenced passes are
// removed until none is left, since removing a pass can release the last
// reference to an earlier one. Passes with copy requests are kept. The root
// pass is never removed.
func RemoveRenderPasses(passes render.PassList) render.PassList {
	if len(passes) == 0 {
		return passes
	}
	exists := make(map[render.PassID]bool, len(passes))
	refs := make(map[render.PassID]int)

	kept := passes[:0]
	for i, p := range passes {
		quads := p.Quads[:0]
		for _, q := range p.Quads {
			if q.Material == render.MaterialRenderPass {
				if !exists[q.PassID] {
					continue
				}
				refs[q.PassID]++
			}
			quads = append(quads, q)
		}
		clear(p.Quads[len(quads):])
		p.Quads = quads

		if i == len(passes)-1 {
			kept = append(kept, p)
			break
		}
		if len(p.Quads) == 0 && len(p.CopyRequests) == 0 {
			logx.L().Debug("frame: removed empty pass", "pass", p.ID)
			continue
		}
		exists[p.ID] = true
		kept = append(kept, p)
	}
	passes = kept

	for removed := true; removed; {
		removed = false
		// Back to front, skipping the root.
		for i := len(passes) - 2; i >= 0; i-- {
			p := passes[i]
			if len(p.CopyRequests) > 0 || refs[p.ID] > 0 {
				continue
			}
			for _, q := range p.Quads {
				if q.Material == render.MaterialRenderPass {
					refs[q.PassID]--
				}
			}
			logx.L().Debug("frame: removed unreferenced pass", "pass", p.ID)
			passes = append(passes[:i], passes[i+1:]...)
			removed = true
		}
	}
	return passes
}
