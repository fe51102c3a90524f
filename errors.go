package compositor

import "errors"

var (
	// ErrReentrantActivation is the panic value when an activation
	// observer activates the sync tree again.
	ErrReentrantActivation = errors.New("compositor: reentrant ActivateSyncTree")

	// ErrNoPendingTree is returned by ActivatePendingTree when no commit is
	// waiting for activation.
	ErrNoPendingTree = errors.New("compositor: no pending tree")

	// ErrNoOutputSink is returned when a frame is drawn without an output.
	ErrNoOutputSink = errors.New("compositor: no output sink")

	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = errors.New("compositor: invalid settings")

	// ErrLoopClosed is returned by Loop methods after Close.
	ErrLoopClosed = errors.New("compositor: loop closed")
)
