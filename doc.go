// Package compositor is the compositor-thread half of a layer compositor.
//
// # Overview
//
// A producer (the main thread) builds scenes and commits them. The
// compositor keeps them in layer trees, scrolls and animates them on its
// own, rasterizes their tiles within a memory budget and turns every vsync
// into a frame for the display.
//
// # Quick Start
//
//	p, err := compositor.NewPipeline(
//	    compositor.WithSink(output.NewRecordingSink()),
//	    compositor.WithViewport(geom.R(0, 0, 800, 600), 1),
//	)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	p.CommitScene(scene)
//	p.OnVsync(time.Now())
//
// # Trees
//
// There are at most three trees. The active tree is drawn and scrolled. A
// commit goes into the pending tree, which replaces the active tree once
// its visible tiles are rastered. The retired active tree is kept as the
// recycle tree and reused by the next commit. With
// Settings.CommitToActiveTree commits go straight into the active tree.
//
// # Threading
//
// Pipeline is single-threaded. Loop runs it on one goroutine and exposes
// every input as a one-way post; BeginMainFrame requests to the producer
// travel on a channel, see ServeProducer.
//
// # Architecture
//
// The packages are organized into:
//   - tree: layer trees, property trees, damage and render surfaces
//   - frame: render pass assembly, occlusion and pruning
//   - scroll: scroll routing, chaining and pinch zoom
//   - animation: layer, page scale, scrollbar and browser controls animations
//   - raster: tile scheduling and the memory budget
//   - output: compositor frames and display sinks
//   - hud: the frame rate overlay
package compositor

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
