package cameras

import (
	"errors"
	"fmt"

	"github.com/technosupport/ts-media-hub/internal/engines"
)

var (
	ErrDuplicateCamera = errors.New("duplicate camera id")
	ErrMissingCameraID = errors.New("camera config yields no id")
	ErrNoCameras       = errors.New("no cameras configured")
	ErrNotInitialized  = errors.New("camera manager not initialized")
	ErrCameraNotFound  = errors.New("camera not found")
)

// InitError is a fatal camera-initialization failure. It carries the
// offending input config so callers can render diagnostics without
// re-deriving anything.
type InitError struct {
	Config *engines.CameraConfig
	Err    error
}

func (e *InitError) Error() string {
	id := "?"
	if e.Config != nil && e.Config.ID != "" {
		id = e.Config.ID
	}
	return fmt.Sprintf("camera %s: initialization failed: %v", id, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func newInitError(cfg *engines.CameraConfig, err error) *InitError {
	return &InitError{Config: cfg, Err: err}
}
