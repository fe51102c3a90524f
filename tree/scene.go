package tree

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/render"
)

// Scene is one commit produced by the main thread.
//
// The pipeline takes ownership of a Scene when it is committed; the producer
// must not modify it afterwards.
type Scene struct {
	SourceFrame int

	Root *SceneLayer

	// PropertyTreesSequence changes whenever the producer rebuilt its
	// property trees. Equal numbers on two trees mean node identities match.
	PropertyTreesSequence int

	// NeedsFullTreeSync is set when the layer hierarchy changed.
	NeedsFullTreeSync bool

	InnerViewportScrollID int
	OuterViewportScrollID int

	PageScale    float64
	MinPageScale float64
	MaxPageScale float64

	BackgroundColor          render.Color
	HasTransparentBackground bool

	BrowserControls BrowserControls

	// ElasticOverscroll is the main thread's rubber-band offset.
	ElasticOverscroll geom.Vector

	UIResourceRequests []UIResourceRequest

	// PageScaleAnimation, if set, is started on activation.
	PageScaleAnimation *PageScaleAnimationRequest

	// GPURasterizationTrigger and ContentSuitableForGPU are the producer's
	// content heuristics.
	GPURasterizationTrigger bool
	ContentSuitableForGPU   bool
}

// SceneLayer describes one layer of a Scene.
type SceneLayer struct {
	ID       int
	Children []*SceneLayer

	Position  geom.Point
	Bounds    geom.Size
	Transform geom.Transform
	Opacity   float64

	Content        ContentSpec
	ContentsOpaque bool

	ForceRenderSurface bool
	MasksToBounds      bool

	// Scroll is non-nil for scrollable layers.
	Scroll *ScrollProperties

	// UpdateRect is the part of the content invalidated by this commit.
	UpdateRect geom.Rect

	CopyRequests []*render.CopyRequest

	// Scrollbar is non-nil for scrollbar layers.
	Scrollbar *ScrollbarProperties
}

// NewSceneLayer returns a layer with unit opacity and identity transform.
func NewSceneLayer(id int) *SceneLayer {
	return &SceneLayer{ID: id, Opacity: 1, Transform: geom.Identity()}
}

// Add appends children and returns l.
func (l *SceneLayer) Add(children ...*SceneLayer) *SceneLayer {
	l.Children = append(l.Children, children...)
	return l
}

// ScrollProperties are the committed scroll state of a layer.
type ScrollProperties struct {
	// ContainerBounds is the size of the scroll viewport, in the layer's
	// parent space at the layer's position.
	ContainerBounds geom.Size

	UserScrollableHorizontal bool
	UserScrollableVertical   bool

	// Offset is the main thread's scroll offset.
	Offset geom.Vector

	MainThreadReasons MainThreadScrollingReasons

	// NonFastScrollableRegion is in layer space.
	NonFastScrollableRegion geom.Region
}

// ContentKind selects how a layer draws.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentSolidColor
	ContentTiled
	ContentUIResource
)

// ContentSpec is the committed description of a layer's content.
type ContentSpec struct {
	Kind  ContentKind
	Color render.Color

	// Images are the encoded images drawn by tiled content.
	Images []raster.ImageRef

	// UIResource is the resource drawn by ContentUIResource.
	UIResource UIResourceID
}

// ScrollbarOrientation is the scrollbar axis.
type ScrollbarOrientation int

const (
	Horizontal ScrollbarOrientation = iota
	Vertical
)

// ScrollbarProperties attach a scrollbar layer to a scroll layer.
type ScrollbarProperties struct {
	ScrollLayerID int
	Orientation   ScrollbarOrientation
	ThumbColor    render.Color
	// ThumbThickness is the thumb size across the track at full thickness.
	ThumbThickness int
}

// BrowserControls describes the top and bottom browser chrome.
type BrowserControls struct {
	TopHeight    float64
	BottomHeight float64

	// ShownRatio is the main thread's shown fraction in [0, 1]. Producers
	// echo the value they last applied.
	ShownRatio float64

	// ShrinkViewport reports whether shown controls shrink the viewport.
	ShrinkViewport bool
}

// PageScaleAnimationRequest asks the compositor to animate the page scale.
type PageScaleAnimationRequest struct {
	TargetOffset geom.Vector
	UseAnchor    bool
	Scale        float64
	DurationMS   int
}
