package pixel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promisedneverland/neopixel/internal/driver/fake"
	"github.com/promisedneverland/neopixel/internal/pixel"
)

func TestSetColorWritesFrame(t *testing.T) {
	drv := &fake.Driver{}
	px := pixel.New(drv, pixel.DefaultOptions)

	assert.NoError(t, px.SetColor(10, 20, 30))
	assert.Equal(t, []byte{10, 20, 30}, drv.Last())

	r, g, b := px.Color()
	assert.Equal(t, uint8(10), r)
	assert.Equal(t, uint8(20), g)
	assert.Equal(t, uint8(30), b)
}

func TestBrightnessScalesWrites(t *testing.T) {
	drv := &fake.Driver{}
	px := pixel.New(drv, pixel.Options{Count: 1, Brightness: 128})

	assert.NoError(t, px.SetColor(255, 100, 0))
	last := drv.Last()
	assert.Equal(t, uint8(128), last[0])
	assert.Equal(t, uint8(50), last[1])
	assert.Equal(t, uint8(0), last[2])

	// The logical color stays unscaled.
	r, g, b := px.Color()
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(100), g)
	assert.Equal(t, uint8(0), b)
}

func TestSetBrightnessRewritesCurrentColor(t *testing.T) {
	drv := &fake.Driver{}
	px := pixel.New(drv, pixel.DefaultOptions)

	assert.NoError(t, px.SetColor(200, 0, 40))
	assert.NoError(t, px.SetBrightness(0))

	assert.Equal(t, 2, drv.Count())
	assert.Equal(t, []byte{0, 0, 0}, drv.Last())
	assert.Equal(t, uint8(0), px.Brightness())

	// Raising brightness again restores the held color, scaled.
	assert.NoError(t, px.SetBrightness(255))
	assert.Equal(t, []byte{200, 0, 40}, drv.Last())
}

func TestOffKeepsBrightness(t *testing.T) {
	drv := &fake.Driver{}
	px := pixel.New(drv, pixel.Options{Count: 1, Brightness: 77})

	assert.NoError(t, px.SetColor(255, 255, 255))
	assert.NoError(t, px.Off())

	assert.Equal(t, []byte{0, 0, 0}, drv.Last())
	assert.Equal(t, uint8(77), px.Brightness())
}

func TestChainMirrorsColor(t *testing.T) {
	drv := &fake.Driver{}
	px := pixel.New(drv, pixel.Options{Count: 3, Brightness: 255})

	assert.NoError(t, px.SetColor(1, 2, 3))
	assert.Equal(t, []byte{1, 2, 3, 1, 2, 3, 1, 2, 3}, drv.Last())
	assert.Equal(t, 3, px.Count())
}
