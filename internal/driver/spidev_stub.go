//go:build !linux

package driver

// SPIDev is only available on linux.
type SPIDev struct{}

func NewSPIDev(spiDev string, count int, colorOrder string, speedHz int, resetUs int) (*SPIDev, error) {
	return nil, ErrUnsupported
}

func (s *SPIDev) Write(rgb []byte) error { return ErrUnsupported }

func (s *SPIDev) Close() error { return nil }
