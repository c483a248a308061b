//go:build linux

package driver

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

// Minimal spidev ioctl bindings. The nrz driver covers the periph.io route;
// this one talks to /dev/spidevX.Y directly.

const (
	spiIOCWriteMode        = 0x40016b01
	spiIOCWriteBitsPerWord = 0x40016b03
	spiIOCWriteMaxSpeedHz  = 0x40046b04
)

// SPIDev encodes WS2812 frames for raw spidev transmission.
type SPIDev struct {
	mu       sync.Mutex
	f        *os.File
	count    int
	colorOrd [3]byte
	resetUs  int
	lut      *nrzTable
}

// NewSPIDev opens spidev (e.g. "/dev/spidev0.0") and prepares an encoder for
// WS2812-over-SPI. speedHz in the 2_400_000-3_200_000 range works well with
// the 3x expand scheme. resetUs is the latch (usually >= 280µs).
func NewSPIDev(spiDev string, count int, colorOrder string, speedHz int, resetUs int) (*SPIDev, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid pixel count: %d", count)
	}
	if speedHz <= 0 {
		speedHz = 2400000
	}
	if resetUs <= 0 {
		resetUs = 300
	}
	f, err := os.OpenFile(spiDev, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open spidev: %w", err)
	}
	// mode 0
	mode := byte(0)
	if _, _, e := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), spiIOCWriteMode, uintptr(unsafe.Pointer(&mode))); e != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set mode: %v", e)
	}
	bpw := byte(8)
	if _, _, e := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), spiIOCWriteBitsPerWord, uintptr(unsafe.Pointer(&bpw))); e != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set bits-per-word: %v", e)
	}
	if _, _, e := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), spiIOCWriteMaxSpeedHz, uintptr(unsafe.Pointer(&speedHz))); e != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set speed: %v", e)
	}

	return &SPIDev{
		f:        f,
		count:    count,
		resetUs:  resetUs,
		colorOrd: parseOrder(colorOrder),
		lut:      buildNRZTable(),
	}, nil
}

func (s *SPIDev) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		return err
	}
	return nil
}

// Write takes len(rgb)==3*count. Each pixel expands to 9 bytes plus a reset
// tail of zeros long enough to latch.
func (s *SPIDev) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return fmt.Errorf("SPI closed")
	}
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}

	enc := make([]byte, s.count*9)
	for i := 0; i < s.count; i++ {
		encodePixel(s.lut, s.colorOrd, rgb[i*3+0], rgb[i*3+1], rgb[i*3+2], enc[i*9:i*9+9])
	}
	if _, err := s.f.Write(enc); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}

	// Latch: hold the line low for resetUs by clocking out zeros. At 2.4MHz
	// one byte is ~3.33us; 128 zeros comfortably covers 300-400us.
	resetBytes := (s.resetUs + 3) / 3
	if resetBytes < 128 {
		resetBytes = 128
	}
	zeros := make([]byte, resetBytes)
	if _, err := s.f.Write(zeros); err != nil {
		return fmt.Errorf("spi latch: %w", err)
	}
	return nil
}
