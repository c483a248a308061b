package pixel

import (
	"fmt"
	"sync"

	"github.com/promisedneverland/neopixel/internal/driver"
)

// DefaultBrightness matches the power-on value of the stock firmware.
const DefaultBrightness uint8 = 255

// Options configures a Pixel.
type Options struct {
	// Count is the chain length. Every bead shows the same color.
	Count int
	// Brightness is the initial global scale, 0-255.
	Brightness uint8
}

// DefaultOptions is a single bead at full brightness.
var DefaultOptions = Options{Count: 1, Brightness: DefaultBrightness}

// Pixel drives a single NeoPixel bead, or a short chain mirroring one color.
// The stored color is unscaled; brightness is applied when frames are built.
type Pixel struct {
	mu         sync.Mutex
	drv        driver.Driver
	count      int
	r, g, b    uint8
	brightness uint8
	buf        []byte
}

// New wires a Pixel to drv. Nothing is written until the first SetColor,
// SetBrightness or Off call.
func New(drv driver.Driver, opts Options) *Pixel {
	count := opts.Count
	if count <= 0 {
		count = 1
	}
	return &Pixel{
		drv:        drv,
		count:      count,
		brightness: opts.Brightness,
		buf:        make([]byte, count*3),
	}
}

// SetColor sets the bead color immediately.
func (p *Pixel) SetColor(r, g, b uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.r, p.g, p.b = r, g, b
	return p.apply()
}

// SetBrightness changes the global 0-255 scale and rewrites the current
// color so the change takes effect immediately, not on the next SetColor.
func (p *Pixel) SetBrightness(level uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.brightness = level
	return p.apply()
}

// Off writes black. The brightness setting survives.
func (p *Pixel) Off() error {
	return p.SetColor(0, 0, 0)
}

// Color returns the logical (unscaled) color.
func (p *Pixel) Color() (r, g, b uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r, p.g, p.b
}

// Brightness returns the current global scale.
func (p *Pixel) Brightness() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.brightness
}

// Count returns the chain length.
func (p *Pixel) Count() int { return p.count }

// scale applies the brightness factor to one channel with rounding.
func scale(c, level uint8) uint8 {
	return uint8((uint16(c)*uint16(level) + 127) / 255)
}

func (p *Pixel) apply() error {
	r := scale(p.r, p.brightness)
	g := scale(p.g, p.brightness)
	b := scale(p.b, p.brightness)
	for i := 0; i < p.count; i++ {
		p.buf[i*3+0] = r
		p.buf[i*3+1] = g
		p.buf[i*3+2] = b
	}
	if err := p.drv.Write(p.buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
