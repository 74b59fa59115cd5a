package capture

import (
	"context"
	"errors"

	"interview-emotion-engine/internal/models"
)

// ErrDeviceClosed is returned by Read once the device has been closed.
// The worker loop treats it as the end of the stream.
var ErrDeviceClosed = errors.New("capture device is closed")

// Sample is one unit read from a capture device: the raw payload kept
// for the report, plus the feature tensor fed to the classifier.
type Sample struct {
	Raw    models.RawSample
	Tensor []float32
}

// Device is a source of capture samples (camera, microphone). Read
// blocks until a sample is available, the context is cancelled, or the
// device is closed. Close must be safe to call concurrently with Read
// and more than once.
type Device interface {
	Read(ctx context.Context) (Sample, error)
	Close() error
}
