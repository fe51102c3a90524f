package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/tree"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve <scenario.yaml>",
		Short: "Run a scenario on a vsync timer and serve metrics and debug endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, g, sc, addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":9464", "HTTP listen address")
	return cmd
}

func serve(ctx context.Context, g *globalFlags, sc *Scenario, addr string) error {
	reg := prometheus.NewRegistry()
	p, err := newScenarioPipeline(g, sc, reg)
	if err != nil {
		return err
	}
	defer p.Close()

	prod := newSceneProducer(sc)
	p.CommitScene(prod.Scene())

	// Scenario events are applied on the loop goroutine before the vsync
	// of their frame.
	frame := 0
	l := compositor.NewLoop(p,
		compositor.WithVsyncInterval(sc.Interval),
		compositor.WithVsyncObserver(func(compositor.VsyncResult) {
			frame++
			for _, e := range sc.eventsAt(frame) {
				applyEvent(p, e)
			}
		}),
	)
	defer l.Close()
	for _, e := range sc.eventsAt(0) {
		applyEvent(p, e)
	}

	errc := make(chan error, 3)
	go func() { errc <- l.Run(ctx) }()
	go func() { errc <- compositor.ServeProducer(ctx, l, prod) }()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newDebugHandler(l, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		compositor.Logger().Info("compositord: serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err = <-errc:
		if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		compositor.Logger().Warn("compositord: shutdown incomplete", "error", serr)
		_ = srv.Close()
	}
	return err
}

// treeInfo describes one tree slot in /debug/trees.
type treeInfo struct {
	SourceFrame int     `json:"source_frame"`
	Layers      int     `json:"layers"`
	PageScale   float64 `json:"page_scale"`
	Drawn       bool    `json:"drawn"`
}

type pipelineInfo struct {
	Active         *treeInfo `json:"active"`
	Pending        *treeInfo `json:"pending,omitempty"`
	Recycle        *treeInfo `json:"recycle,omitempty"`
	FrameNumber    int       `json:"frame_number"`
	CanDraw        bool      `json:"can_draw"`
	Visible        bool      `json:"visible"`
	CommitInFlight bool      `json:"commit_in_flight"`
	TreePriority   string    `json:"tree_priority"`
}

func describeTree(t *tree.LayerTree) *treeInfo {
	if t == nil {
		return nil
	}
	return &treeInfo{
		SourceFrame: t.SourceFrame(),
		Layers:      len(t.Layers()),
		PageScale:   t.PageScale(),
		Drawn:       t.HasEverBeenDrawn(),
	}
}

func describePipeline(p *compositor.Pipeline) pipelineInfo {
	return pipelineInfo{
		Active:         describeTree(p.ActiveTree()),
		Pending:        describeTree(p.PendingTree()),
		Recycle:        describeTree(p.RecycleTree()),
		FrameNumber:    p.FrameNumber(),
		CanDraw:        p.CanDraw(),
		Visible:        p.Visible(),
		CommitInFlight: p.CommitInFlight(),
		TreePriority:   p.Budget().State().TreePriority.String(),
	}
}

// newDebugHandler serves /metrics from reg and inspects or pokes the
// pipeline behind l under /debug.
func newDebugHandler(l *compositor.Loop, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/debug", func(r chi.Router) {
		r.Get("/trees", func(w http.ResponseWriter, _ *http.Request) {
			var info pipelineInfo
			if err := l.Do(func(p *compositor.Pipeline) { info = describePipeline(p) }); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(info); err != nil {
				compositor.Logger().Warn("compositord: encode trees", "error", err)
			}
		})

		r.Get("/settings", func(w http.ResponseWriter, _ *http.Request) {
			var s compositor.Settings
			if err := l.Do(func(p *compositor.Pipeline) { s = p.Settings() }); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "text/yaml")
			if err := yaml.NewEncoder(w).Encode(s); err != nil {
				compositor.Logger().Warn("compositord: encode settings", "error", err)
			}
		})

		r.Post("/visible/{state}", func(w http.ResponseWriter, req *http.Request) {
			visible, err := strconv.ParseBool(chi.URLParam(req, "state"))
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid state: %v", err), http.StatusBadRequest)
				return
			}
			reply(w, l.SetVisible(visible))
		})

		r.Post("/commit", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, l.Do(func(p *compositor.Pipeline) { p.SetNeedsCommit() }))
		})

		r.Post("/memory", func(w http.ResponseWriter, req *http.Request) {
			bytes, err := strconv.ParseUint(req.URL.Query().Get("bytes"), 10, 64)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid bytes: %v", err), http.StatusBadRequest)
				return
			}
			reply(w, l.Do(func(p *compositor.Pipeline) {
				policy := p.Budget().Policy()
				policy.BytesLimitWhenVisible = bytes
				p.SetMemoryPolicy(policy)
			}))
		})
	})
	return r
}

func reply(w http.ResponseWriter, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
