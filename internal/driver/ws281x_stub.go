//go:build !linux || !cgo

package driver

// WS281x needs linux and cgo for the rpi_ws281x bindings.
type WS281x struct{}

func NewWS281x(gpio int, count int) (*WS281x, error) {
	return nil, ErrUnsupported
}

func (w *WS281x) Write(rgb []byte) error { return ErrUnsupported }

func (w *WS281x) Close() error { return nil }
