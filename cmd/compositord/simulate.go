package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor"
)

// simulationStart is the frame time of the first vsync. A fixed start
// keeps reports reproducible.
var simulationStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Report summarizes a simulation.
type Report struct {
	Frames      int                  `yaml:"frames"`
	Drawn       int                  `yaml:"drawn"`
	NoDamage    int                  `yaml:"no_damage"`
	Aborted     map[string]int       `yaml:"aborted,omitempty"`
	Activations int                  `yaml:"activations"`
	MainFrames  int                  `yaml:"main_frames"`
	Commits     int                  `yaml:"commits"`
	SourceFrame int                  `yaml:"source_frame"`
	PageScale   float64              `yaml:"page_scale"`
	Offsets     map[int]OffsetReport `yaml:"offsets,omitempty"`
	Pending     bool                 `yaml:"pending_tree"`
}

// OffsetReport is the final scroll offset of one layer.
type OffsetReport struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (r *Report) record(res compositor.VsyncResult) {
	r.Frames++
	if res.Activated {
		r.Activations++
	}
	if res.BeginMainFrame != nil {
		r.MainFrames++
	}
	switch f := res.Frame; {
	case f == nil:
	case f.HasNoDamage:
		r.NoDamage++
	case f.Result.Aborted():
		if r.Aborted == nil {
			r.Aborted = make(map[string]int)
		}
		r.Aborted[f.Result.String()]++
	case res.Drew:
		r.Drawn++
	}
}

// simulate commits the producer's first scene and runs sc.Frames vsyncs,
// applying each frame's events first. BeginMainFrame requests are answered
// synchronously by prod.
func simulate(ctx context.Context, p *compositor.Pipeline, sc *Scenario, prod *sceneProducer) (*Report, error) {
	r := &Report{}
	p.CommitScene(prod.Scene())

	for i := 0; i < sc.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, e := range sc.eventsAt(i) {
			applyEvent(p, e)
		}
		res := p.OnVsync(simulationStart.Add(time.Duration(i) * sc.Interval))
		r.record(res)

		if req := res.BeginMainFrame; req != nil {
			scene, err := prod.BeginMainFrame(ctx, req)
			if err != nil {
				p.BeginMainFrameAborted(false)
			} else {
				p.CommitScene(scene)
			}
		}
		drainTileEvents(p)
	}

	active := p.ActiveTree()
	r.Commits = prod.Commits()
	r.SourceFrame = active.SourceFrame()
	r.PageScale = active.PageScale()
	r.Pending = p.PendingTree() != nil
	for _, l := range sc.Layers {
		if l.Scroll == nil {
			continue
		}
		n := active.ScrollNode(l.ID)
		if n == nil {
			continue
		}
		if r.Offsets == nil {
			r.Offsets = make(map[int]OffsetReport)
		}
		off := n.CurrentOffset()
		r.Offsets[l.ID] = OffsetReport{X: off.X, Y: off.Y}
	}
	return r, nil
}

// drainTileEvents applies raster completions that arrived since the last
// frame without waiting for more.
func drainTileEvents(p *compositor.Pipeline) {
	ts := p.TileScheduler()
	select {
	case <-ts.Notify():
		p.HandleTileEvents(ts.TakeEvents())
	default:
	}
}

// newScenarioPipeline builds a pipeline for sc from the global flags.
func newScenarioPipeline(g *globalFlags, sc *Scenario, reg prometheus.Registerer) (*compositor.Pipeline, error) {
	settings, err := g.loadSettings()
	if err != nil {
		return nil, err
	}
	sink, err := g.newSink()
	if err != nil {
		return nil, fmt.Errorf("create sink: %w", err)
	}
	return compositor.NewPipeline(
		compositor.WithSettings(settings),
		compositor.WithSink(sink),
		compositor.WithViewport(sc.viewportRect(), sc.Viewport.DeviceScale),
		compositor.WithMetrics(reg),
	)
}

func newSimulateCmd(g *globalFlags) *cobra.Command {
	var frames int
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a scenario for a fixed number of vsyncs and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frames") {
				sc.Frames = frames
			}

			p, err := newScenarioPipeline(g, sc, nil)
			if err != nil {
				return err
			}
			defer p.Close()

			r, err := simulate(cmd.Context(), p, sc, newSceneProducer(sc))
			if err != nil {
				return err
			}
			return writeReport(cmd, r)
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 0, "number of vsyncs, overriding the scenario")
	return cmd
}

func writeReport(cmd *cobra.Command, r *Report) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return enc.Close()
}
