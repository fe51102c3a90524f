package compositor

import (
	"context"

	"github.com/gogpu/compositor/internal/logx"
	"github.com/gogpu/compositor/tree"
)

// Producer builds commits on its own goroutine, the main thread of the
// compositor.
type Producer interface {
	// BeginMainFrame applies req.Deltas and returns the next scene. A nil
	// scene with a nil error means nothing changed.
	BeginMainFrame(ctx context.Context, req *BeginMainFrame) (*tree.Scene, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, req *BeginMainFrame) (*tree.Scene, error)

func (f ProducerFunc) BeginMainFrame(ctx context.Context, req *BeginMainFrame) (*tree.Scene, error) {
	return f(ctx, req)
}

// ServeProducer answers the loop's BeginMainFrame requests with prod until
// ctx is done or the loop is closed. A failed request aborts the main frame
// with its deltas unapplied.
func ServeProducer(ctx context.Context, l *Loop, prod Producer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case req := <-l.MainFrames():
			scene, err := prod.BeginMainFrame(ctx, req)
			switch {
			case err != nil:
				logx.L().Warn("compositor: main frame failed", "number", req.Number, "error", err)
				err = l.AbortMainFrame(false)
			case scene == nil:
				err = l.AbortMainFrame(true)
			default:
				err = l.Commit(scene)
			}
			if err != nil {
				return nil
			}
		}
	}
}
