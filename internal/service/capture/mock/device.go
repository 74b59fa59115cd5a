// Package mock provides a virtual clock and a scripted capture device,
// so worker behavior can be tested without real hardware or sleeps.
package mock

import (
	"context"
	"sync"
	"time"

	"interview-emotion-engine/internal/service/capture"
)

// Clock is a manually advanced session clock.
type Clock struct {
	mu  sync.Mutex
	now time.Duration
}

// NewClock creates a clock at zero elapsed time.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current virtual elapsed time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// Set jumps the clock to an absolute elapsed time.
func (c *Clock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = d
}

// Device is a capture device fed by the test. Read serves buffered
// samples first, so samples pushed before Close are never lost.
type Device struct {
	ch     chan capture.Sample
	closed chan struct{}
	once   sync.Once
}

// NewDevice creates a device with the given sample buffer.
func NewDevice(buffer int) *Device {
	return &Device{
		ch:     make(chan capture.Sample, buffer),
		closed: make(chan struct{}),
	}
}

// Push queues a sample for the next Read. Returns false once the
// device is closed or the buffer is full.
func (d *Device) Push(s capture.Sample) bool {
	select {
	case <-d.closed:
		return false
	default:
	}
	select {
	case d.ch <- s:
		return true
	default:
		return false
	}
}

// Drained reports whether all pushed samples have been read.
func (d *Device) Drained() bool {
	return len(d.ch) == 0
}

// Read returns the next sample, preferring buffered samples over the
// closed signal.
func (d *Device) Read(ctx context.Context) (capture.Sample, error) {
	select {
	case s := <-d.ch:
		return s, nil
	default:
	}
	select {
	case s := <-d.ch:
		return s, nil
	case <-d.closed:
		return capture.Sample{}, capture.ErrDeviceClosed
	case <-ctx.Done():
		return capture.Sample{}, ctx.Err()
	}
}

// Close releases the device. Idempotent.
func (d *Device) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}
