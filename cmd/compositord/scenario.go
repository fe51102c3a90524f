package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/scroll"
	"github.com/gogpu/compositor/tree"
)

// Scenario is a scene plus the input applied to it, frame by frame.
//
//	viewport: {width: 400, height: 300}
//	frames: 30
//	inner_viewport: 2
//	layers:
//	  - {id: 1, width: 400, height: 300}
//	  - id: 2
//	    parent: 1
//	    width: 400
//	    height: 900
//	    color: "#3366ff"
//	    opaque: true
//	    scroll: {width: 400, height: 300, vertical: true}
//	events:
//	  - {frame: 5, type: scroll_begin, x: 200, y: 150}
//	  - {frame: 6, type: scroll_by, x: 200, y: 150, dy: 120}
//	  - {frame: 7, type: scroll_end}
type Scenario struct {
	Viewport ViewportSpec  `yaml:"viewport"`
	Frames   int           `yaml:"frames"`
	Interval time.Duration `yaml:"interval"`

	InnerViewport int     `yaml:"inner_viewport"`
	OuterViewport int     `yaml:"outer_viewport"`
	PageScale     float64 `yaml:"page_scale"`
	MinPageScale  float64 `yaml:"min_page_scale"`
	MaxPageScale  float64 `yaml:"max_page_scale"`
	Background    string  `yaml:"background"`

	// ControlsHeight is the height of the top browser controls.
	ControlsHeight float64 `yaml:"controls_height"`

	Layers []LayerSpec `yaml:"layers"`
	Events []EventSpec `yaml:"events"`
}

type ViewportSpec struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	DeviceScale float64 `yaml:"device_scale"`
}

// LayerSpec is one layer. Parent 0 makes it the root; exactly one layer
// must be the root.
type LayerSpec struct {
	ID      int         `yaml:"id"`
	Parent  int         `yaml:"parent"`
	X       float64     `yaml:"x"`
	Y       float64     `yaml:"y"`
	Width   int         `yaml:"width"`
	Height  int         `yaml:"height"`
	Color   string      `yaml:"color"`
	Opacity *float64    `yaml:"opacity"`
	Opaque  bool        `yaml:"opaque"`
	Scroll  *ScrollSpec `yaml:"scroll"`
}

// ScrollSpec makes a layer scrollable inside a container of the given size.
type ScrollSpec struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Horizontal bool `yaml:"horizontal"`
	Vertical   bool `yaml:"vertical"`
}

// EventSpec is applied before the vsync of Frame.
type EventSpec struct {
	Frame   int     `yaml:"frame"`
	Type    string  `yaml:"type"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	DX      float64 `yaml:"dx"`
	DY      float64 `yaml:"dy"`
	Magnify float64 `yaml:"magnify"`
	Bytes   uint64  `yaml:"bytes"`
	Wheel   bool    `yaml:"wheel"`
}

var errInvalidScenario = errors.New("invalid scenario")

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario, filling in defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{
		Frames:       60,
		Interval:     16 * time.Millisecond,
		PageScale:    1,
		MinPageScale: 1,
		MaxPageScale: 4,
		Viewport:     ViewportSpec{DeviceScale: 1},
	}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Viewport.Width <= 0 || sc.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", errInvalidScenario, sc.Viewport.Width, sc.Viewport.Height)
	}
	if sc.Frames < 0 {
		return fmt.Errorf("%w: frames %d", errInvalidScenario, sc.Frames)
	}
	ids := make(map[int]bool, len(sc.Layers))
	roots := 0
	for _, l := range sc.Layers {
		if l.ID <= 0 || ids[l.ID] {
			return fmt.Errorf("%w: layer id %d", errInvalidScenario, l.ID)
		}
		ids[l.ID] = true
		if l.Parent == 0 {
			roots++
		}
		if _, err := parseColor(l.Color); err != nil {
			return fmt.Errorf("%w: layer %d: %v", errInvalidScenario, l.ID, err)
		}
	}
	if sc.ControlsHeight < 0 {
		return fmt.Errorf("%w: controls_height %g", errInvalidScenario, sc.ControlsHeight)
	}
	if roots != 1 {
		return fmt.Errorf("%w: %d root layers, want 1", errInvalidScenario, roots)
	}
	for _, l := range sc.Layers {
		if l.Parent != 0 && !ids[l.Parent] {
			return fmt.Errorf("%w: layer %d has unknown parent %d", errInvalidScenario, l.ID, l.Parent)
		}
	}
	for _, e := range sc.Events {
		if _, ok := eventTypes[e.Type]; !ok {
			return fmt.Errorf("%w: unknown event type %q", errInvalidScenario, e.Type)
		}
	}
	if _, err := parseColor(sc.Background); err != nil {
		return fmt.Errorf("%w: background: %v", errInvalidScenario, err)
	}
	return nil
}

// parseColor parses #rrggbb or #rrggbbaa. The empty string is transparent.
func parseColor(s string) (render.Color, error) {
	if s == "" {
		return render.Transparent, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return render.Color{}, fmt.Errorf("color %q is not #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return render.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return render.RGBA(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

func (sc *Scenario) viewportRect() geom.Rect {
	return geom.R(0, 0, sc.Viewport.Width, sc.Viewport.Height)
}

// =============================================================================
// Scene producer
// =============================================================================

// sceneProducer plays the main thread: it applies the deltas of each
// BeginMainFrame to its own scroll state and answers with a new scene.
type sceneProducer struct {
	sc *Scenario

	mu        sync.Mutex
	source    int
	offsets   map[int]geom.Vector
	pageScale float64
	ratio     float64
	commits   int
}

func newSceneProducer(sc *Scenario) *sceneProducer {
	return &sceneProducer{
		sc:        sc,
		offsets:   make(map[int]geom.Vector),
		pageScale: sc.PageScale,
		ratio:     1,
	}
}

func (p *sceneProducer) BeginMainFrame(_ context.Context, req *compositor.BeginMainFrame) (*tree.Scene, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d := req.Deltas; d != nil {
		for _, u := range d.Scrolls {
			p.offsets[u.LayerID] = p.offsets[u.LayerID].Add(u.Delta)
		}
		if d.PageScaleDelta > 0 {
			p.pageScale *= d.PageScaleDelta
		}
		p.ratio += d.TopControlsDelta
	}
	return p.sceneLocked(), nil
}

// Scene returns the current scene for the initial commit.
func (p *sceneProducer) Scene() *tree.Scene {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sceneLocked()
}

// Offset returns the producer's scroll offset of layer id.
func (p *sceneProducer) Offset(id int) geom.Vector {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offsets[id]
}

func (p *sceneProducer) Commits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commits
}

func (p *sceneProducer) sceneLocked() *tree.Scene {
	p.source++
	p.commits++
	byID := make(map[int]*tree.SceneLayer, len(p.sc.Layers))
	var root *tree.SceneLayer
	for _, spec := range p.sc.Layers {
		byID[spec.ID] = p.layer(spec)
	}
	for _, spec := range p.sc.Layers {
		l := byID[spec.ID]
		if spec.Parent == 0 {
			root = l
			continue
		}
		byID[spec.Parent].Add(l)
	}
	bg, _ := parseColor(p.sc.Background)
	return &tree.Scene{
		SourceFrame:              p.source,
		Root:                     root,
		NeedsFullTreeSync:        p.source == 1,
		InnerViewportScrollID:    p.sc.InnerViewport,
		OuterViewportScrollID:    p.sc.OuterViewport,
		PageScale:                p.pageScale,
		MinPageScale:             p.sc.MinPageScale,
		MaxPageScale:             p.sc.MaxPageScale,
		BackgroundColor:          bg,
		HasTransparentBackground: bg.A == 0,
		BrowserControls:          tree.BrowserControls{TopHeight: p.sc.ControlsHeight, ShownRatio: p.ratio},
	}
}

func (p *sceneProducer) layer(spec LayerSpec) *tree.SceneLayer {
	l := tree.NewSceneLayer(spec.ID)
	l.Position = geom.Pt(spec.X, spec.Y)
	l.Bounds = geom.Size{W: spec.Width, H: spec.Height}
	if spec.Opacity != nil {
		l.Opacity = *spec.Opacity
	}
	if c, _ := parseColor(spec.Color); c.A > 0 {
		l.Content = tree.ContentSpec{Kind: tree.ContentSolidColor, Color: c}
		l.ContentsOpaque = spec.Opaque && c.IsOpaque()
	}
	if s := spec.Scroll; s != nil {
		l.Scroll = &tree.ScrollProperties{
			ContainerBounds:          geom.Size{W: s.Width, H: s.Height},
			UserScrollableHorizontal: s.Horizontal,
			UserScrollableVertical:   s.Vertical,
			Offset:                   p.offsets[spec.ID],
		}
	}
	return l
}

// =============================================================================
// Events
// =============================================================================

// eventTypes lists the event names applyEvent understands.
var eventTypes = map[string]struct{}{
	"scroll_begin": {}, "scroll_by": {}, "scroll_end": {}, "scroll_animated": {},
	"pinch_begin": {}, "pinch_update": {}, "pinch_end": {},
	"hide": {}, "show": {}, "memory_limit": {}, "commit": {}, "redraw": {}, "resize": {},
}

func applyEvent(p *compositor.Pipeline, e EventSpec) {
	pt := geom.Pt(e.X, e.Y)
	switch e.Type {
	case "scroll_begin":
		p.ScrollBegin(scroll.NewState(pt, geom.Vector{}), inputType(e))
	case "scroll_by":
		p.ScrollBy(scroll.NewState(pt, geom.Pt(e.DX, e.DY)))
	case "scroll_end":
		p.ScrollEnd(scroll.NewState(pt, geom.Vector{}))
	case "scroll_animated":
		p.ScrollAnimated(pt, geom.Pt(e.DX, e.DY), 0)
	case "pinch_begin":
		p.PinchBegin()
	case "pinch_update":
		p.PinchUpdate(e.Magnify, pt)
	case "pinch_end":
		p.PinchEnd()
	case "hide":
		p.SetVisible(false)
	case "show":
		p.SetVisible(true)
	case "memory_limit":
		policy := p.Budget().Policy()
		policy.BytesLimitWhenVisible = e.Bytes
		p.SetMemoryPolicy(policy)
	case "commit":
		p.SetNeedsCommit()
	case "redraw":
		p.SetNeedsRedraw()
	case "resize":
		p.SetDeviceViewport(geom.R(0, 0, int(e.DX), int(e.DY)), 0)
	}
}

func inputType(e EventSpec) scroll.InputType {
	if e.Wheel {
		return scroll.InputWheel
	}
	return scroll.InputTouchscreen
}

// eventsAt returns the events of frame n in file order.
func (sc *Scenario) eventsAt(n int) []EventSpec {
	var out []EventSpec
	for _, e := range sc.Events {
		if e.Frame == n {
			out = append(out, e)
		}
	}
	return out
}
