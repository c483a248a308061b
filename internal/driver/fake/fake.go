package fake

import (
	"errors"
	"sync"
)

// Driver records every frame it receives, useful for headless runs and tests.
type Driver struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (d *Driver) Write(rgb []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("driver closed")
	}
	d.frames = append(d.frames, append([]byte(nil), rgb...))
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Last returns the most recent frame, or nil if nothing was written.
func (d *Driver) Last() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}

// Count returns the number of frames written.
func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

// Frames returns a copy of all recorded frames.
func (d *Driver) Frames() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.frames))
	copy(out, d.frames)
	return out
}
