package driver

import "errors"

// ErrUnsupported is returned by constructors for backends that are not
// available on the current platform or build.
var ErrUnsupported = errors.New("driver not supported on this platform")

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources. The pixels keep their last written state.
	Close() error
}
