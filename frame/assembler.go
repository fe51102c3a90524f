package frame

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/tree"
)

// Assembler builds frames for one pipeline. It is not safe for concurrent
// use.
type Assembler struct {
	viewportDamage geom.Rect
}

// NewAssembler returns an Assembler with no pending viewport damage.
func NewAssembler() *Assembler { return &Assembler{} }

// SetViewportDamage adds r, in screen space, to the root damage of the next
// frame.
func (a *Assembler) SetViewportDamage(r geom.Rect) {
	a.viewportDamage = a.viewportDamage.Union(r)
}

// build is the state of one PrepareFrame call.
type build struct {
	t     *tree.LayerTree
	opts  AssembleOptions
	frame *FrameData

	passes    map[render.PassID]*render.Pass
	occlusion map[*tree.RenderSurface]*geom.Region

	missingAnimated bool
}

// PrepareFrame assembles a frame from t. Draw properties are brought up to
// date first.
func (a *Assembler) PrepareFrame(t *tree.LayerTree, opts AssembleOptions) *FrameData {
	f := &FrameData{HUD: opts.HUD}
	t.UpdateDrawProperties()

	root := t.RootRenderSurface()
	if root == nil || t.LayerListIsEmpty() {
		f.Result = DrawAbortedCantDraw
		return f
	}
	if !a.viewportDamage.IsEmpty() {
		root.DamageTracker().Invalidate(a.viewportDamage)
		a.viewportDamage = geom.Rect{}
	}
	t.TrackDamageForAllSurfaces()

	rootDamage := root.CurrentDamage()
	hudWantsToDraw := opts.HUD != nil && opts.HUD.IsAnimating()
	haveCopyRequest := t.HasCopyRequests()
	if len(root.LayerList()) > 0 && !rootDamage.Intersects(root.ContentRect()) &&
		!haveCopyRequest && !opts.ForceResend && !hudWantsToDraw {
		f.HasNoDamage = true
		logx.L().Debug("frame: no damage", "source_frame", t.SourceFrame())
		return f
	}

	// Taking copy requests below marks draw properties stale, which would
	// invalidate the region.
	fill := t.UnoccludedScreenSpaceRegion().Clone()

	b := &build{
		t:         t,
		opts:      opts,
		frame:     f,
		passes:    make(map[render.PassID]*render.Pass),
		occlusion: make(map[*tree.RenderSurface]*geom.Region),
	}
	b.appendRenderPasses()
	if opts.HUD != nil {
		rp := f.Passes.Root()
		rp.DamageRect = rp.OutputRect
	}
	t.ForEachFrontToBack(b.visit)

	f.Result = b.result()
	rp := f.Passes.Root()
	if opts.CullToDamage {
		cullToDamage(rp)
	}
	if !t.HasTransparentBackground() {
		rp.HasTransparentBackground = false
		appendQuadsToFillScreen(rp, root, t.BackgroundColor(), &fill)
	}
	f.Passes = RemoveRenderPasses(f.Passes)
	f.RootDamageRect = f.Passes.Root().DamageRect

	if haveCopyRequest {
		if f.Result.Aborted() {
			for _, p := range f.Passes {
				t.RequeueCopyRequests(p.ID, p.CopyRequests)
				p.CopyRequests = nil
			}
		}
		t.SetNeedsUpdateDrawProperties()
		f.NeedsCommit = true
	}

	logx.L().Debug("frame: prepared",
		"result", f.Result,
		"passes", len(f.Passes),
		"layers", f.LayersDrawn,
		"missing_tiles", f.NumMissingTiles,
		"damage", f.RootDamageRect)
	return f
}

// appendRenderPasses creates the passes in dependency order, descendants
// before the surfaces they draw into.
func (b *build) appendRenderPasses() {
	list := b.t.RenderSurfaceList()
	for i := len(list) - 1; i >= 0; i-- {
		l := list[i]
		s := l.RenderSurface()
		if i != 0 && !s.ContributesToDrawnSurface() && !s.HasCopyRequest() {
			continue
		}
		p := s.NewRenderPass()
		b.passes[p.ID] = p
		b.frame.Passes = append(b.frame.Passes, p)
	}
	// Non-root damage is meaningless once the pass is composited again.
	for _, p := range b.frame.Passes[:len(b.frame.Passes)-1] {
		p.DamageRect = p.OutputRect
	}
}

func (b *build) occlusionFor(s *tree.RenderSurface) *geom.Region {
	occ := b.occlusion[s]
	if occ == nil {
		occ = &geom.Region{}
		b.occlusion[s] = occ
	}
	return occ
}

func (b *build) visit(e tree.Entry) {
	target := b.passes[e.Target.PassID()]
	if target == nil {
		return
	}
	var data tree.AppendQuadsData

	switch e.Kind {
	case tree.EntryTargetSurface:
		if e.Target.HasCopyRequest() {
			target.CopyRequests = append(target.CopyRequests, e.Layer.TakeCopyRequests()...)
		}
		return

	case tree.EntryContributingSurface:
		cs := e.Layer.RenderSurface()
		if cs == nil || !cs.ContributesToDrawnSurface() || b.passes[cs.PassID()] == nil {
			return
		}
		cs.AppendQuads(target, b.occlusionFor(e.Target), &data)

	case tree.EntryLayer:
		l := e.Layer
		d := l.Draw()
		if d.VisibleRect.IsEmpty() {
			return
		}
		occ := b.occlusionFor(e.Target)
		occluded := d.ScreenSpaceTransform.IsAxisAligned() && occ.ContainsRect(d.VisibleScreenRect)
		if !occluded && l.WillDraw(b.opts.Mode, b.opts.Resources) {
			b.frame.WillDrawLayers = append(b.frame.WillDrawLayers, l)
			sqs := target.CreateSharedQuadState()
			l.PopulateSharedQuadState(sqs)
			l.AppendQuads(&tree.QuadContext{
				Pass:      target,
				Layer:     l,
				Shared:    sqs,
				Occlusion: occ,
				Mode:      b.opts.Mode,
				Resources: b.opts.Resources,
			}, &data)
			if l.ContentsOpaque() && d.Opacity == 1 && d.ScreenSpaceTransform.IsAxisAligned() {
				occ.Union(d.ScreenSpaceTransform.MapEnclosedRect(d.VisibleRect).Intersect(d.VisibleScreenRect))
			}
		}
		b.frame.LayersDrawn++

		if data.NumMissingTiles > 0 {
			if !l.WasEverReadySinceLastTransformAnimation() || d.ScreenSpaceTransformIsAnimating {
				b.missingAnimated = true
			}
		} else {
			l.SetWasEverReadySinceLastTransformAnimation(true)
		}
	}

	b.frame.NumMissingTiles += data.NumMissingTiles
	b.frame.NumIncompleteTiles += data.NumIncompleteTiles
	b.frame.CheckerboardedArea += data.CheckerboardedArea
	b.frame.VisibleLayerArea += data.VisibleLayerArea
}

func (b *build) result() DrawResult {
	r := DrawSuccess
	if b.missingAnimated && !b.opts.CommitToActiveTree {
		r = DrawAbortedCheckerboardAnimations
	}
	if (b.frame.NumMissingTiles > 0 || b.frame.NumIncompleteTiles > 0) && b.opts.RequiresHighResToDraw {
		r = DrawAbortedMissingHighResContent
	}
	// A surface we do not own has already lost its previous frame, so a
	// partial frame beats none.
	if b.opts.ResourcelessSoftwareDraw {
		r = DrawSuccess
	}
	return r
}

// appendQuadsToFillScreen covers the unoccluded screen with the background
// color. The quads are in root target space and bypass occlusion.
func appendQuadsToFillScreen(root *render.Pass, surface *tree.RenderSurface, bg render.Color, fill *geom.Region) {
	if bg.A == 0 || fill.IsEmpty() {
		return
	}
	rect := surface.ContentRect()
	sqs := root.CreateSharedQuadState()
	sqs.ContentBounds = rect
	sqs.VisibleContentRect = rect
	for _, r := range fill.Rects() {
		root.AppendQuad(render.Quad{
			Material:      render.MaterialSolidColor,
			Rect:          r,
			VisibleRect:   r,
			NeedsBlending: !bg.IsOpaque(),
			Shared:        sqs,
			Color:         bg,
		})
	}
}

// cullToDamage drops the quads of p that lie outside its damage rect.
func cullToDamage(p *render.Pass) {
	if p.DamageRect == p.OutputRect {
		return
	}
	kept := p.Quads[:0]
	for _, q := range p.Quads {
		if q.TargetRect().Intersects(p.DamageRect) {
			kept = append(kept, q)
		}
	}
	clear(p.Quads[len(kept):])
	p.Quads = kept
}
