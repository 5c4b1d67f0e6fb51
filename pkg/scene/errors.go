package scene

import "errors"

var (
	// ErrNoActiveCamera is returned by Render when no camera has been added.
	ErrNoActiveCamera = errors.New("scene: no active camera")

	// ErrNoGeometry is returned by Render when the scene holds no triangles.
	ErrNoGeometry = errors.New("scene: no geometry")

	// ErrFrameAborted wraps any failure that stopped a frame from being
	// presented. The caller skips the frame and keeps running.
	ErrFrameAborted = errors.New("scene: frame aborted")
)
