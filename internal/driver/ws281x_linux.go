//go:build linux && cgo

package driver

import (
	"fmt"
	"sync"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// WS281x pushes frames through the rpi_ws281x PWM/DMA engine. Channel
// brightness stays at full scale; dimming is handled upstream.
type WS281x struct {
	mu    sync.Mutex
	dev   *ws2811.WS2811
	count int
}

// NewWS281x initializes channel 0 on the given data pin (BCM numbering).
func NewWS281x(gpio int, count int) (*WS281x, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid pixel count: %d", count)
	}
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = gpio
	opt.Channels[0].LedCount = count
	opt.Channels[0].Brightness = 255

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("ws2811 setup: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("ws2811 init: %w", err)
	}
	return &WS281x{dev: dev, count: count}, nil
}

func (w *WS281x) Write(rgb []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev == nil {
		return fmt.Errorf("ws281x closed")
	}
	if len(rgb) != w.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), w.count)
	}
	leds := w.dev.Leds(0)
	for i := 0; i < w.count; i++ {
		r := uint32(rgb[i*3+0])
		g := uint32(rgb[i*3+1])
		b := uint32(rgb[i*3+2])
		leds[i] = (r << 16) | (g << 8) | b
	}
	if err := w.dev.Render(); err != nil {
		return fmt.Errorf("ws2811 render: %w", err)
	}
	return nil
}

func (w *WS281x) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev != nil {
		w.dev.Fini()
		w.dev = nil
	}
	return nil
}
