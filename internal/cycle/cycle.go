package cycle

import (
	"context"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/promisedneverland/neopixel/internal/pixel"
)

// DefaultWait is the pause between steps when none is configured.
const DefaultWait = 500 * time.Millisecond

// RGB is one palette entry.
type RGB struct{ R, G, B uint8 }

// Palette is the rotation the stock firmware walks through.
var Palette = []RGB{
	{255, 0, 0},
	{0, 255, 0},
	{0, 0, 255},
	{255, 255, 0},
	{0, 255, 255},
	{255, 0, 255},
	{255, 255, 255},
}

// Mode selects how colors advance.
type Mode string

const (
	// ModePalette steps through Palette entries.
	ModePalette Mode = "palette"
	// ModeRainbow walks the hue wheel in 6 degree increments.
	ModeRainbow Mode = "rainbow"
)

const rainbowHueStep = 6.0

// Cycler repeatedly changes the pixel color, one step per call.
type Cycler struct {
	px   *pixel.Pixel
	mode Mode
	idx  int
	hue  float64
}

func New(px *pixel.Pixel, mode Mode) *Cycler {
	if mode != ModeRainbow {
		mode = ModePalette
	}
	return &Cycler{px: px, mode: mode}
}

// Step advances exactly one color and writes it.
func (c *Cycler) Step() error {
	switch c.mode {
	case ModeRainbow:
		r, g, b := colorful.Hsv(c.hue, 1, 1).RGB255()
		c.hue += rainbowHueStep
		if c.hue >= 360 {
			c.hue -= 360
		}
		return c.px.SetColor(r, g, b)
	default:
		e := Palette[c.idx]
		c.idx = (c.idx + 1) % len(Palette)
		return c.px.SetColor(e.R, e.G, e.B)
	}
}

// Run writes the first color immediately, then steps every wait until ctx is
// cancelled. It blocks; callers wanting concurrency start their own goroutine.
func (c *Cycler) Run(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		wait = DefaultWait
	}
	if err := c.Step(); err != nil {
		return err
	}
	ticker := time.NewTicker(wait)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.Step(); err != nil {
				return err
			}
		}
	}
}
