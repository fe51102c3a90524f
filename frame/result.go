package frame

// DrawResult is the outcome of PrepareFrame.
type DrawResult int

const (
	DrawSuccess DrawResult = iota

	// DrawAbortedCheckerboardAnimations drops a frame in which content
	// moving under a transform animation is missing tiles.
	DrawAbortedCheckerboardAnimations

	// DrawAbortedMissingHighResContent drops a frame with missing tiles
	// while full resolution is required to draw.
	DrawAbortedMissingHighResContent

	// DrawAbortedCantDraw means the tree has nothing to draw into.
	DrawAbortedCantDraw
)

func (r DrawResult) String() string {
	switch r {
	case DrawSuccess:
		return "Success"
	case DrawAbortedCheckerboardAnimations:
		return "AbortedCheckerboardAnimations"
	case DrawAbortedMissingHighResContent:
		return "AbortedMissingHighResContent"
	case DrawAbortedCantDraw:
		return "AbortedCantDraw"
	default:
		return "Unknown"
	}
}

// Aborted reports whether the frame must not be submitted.
func (r DrawResult) Aborted() bool { return r != DrawSuccess }
