package driver

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
)

// WS2812 NRZ bit rate in kHz.
const nrzRate physic.Frequency = 800

// NRZ drives WS2812-class pixels through a periph.io SPI port using the
// nrzled device. When no SPI port can be opened it falls back to rendering
// frames on the terminal, which keeps the daemon usable on a dev machine.
type NRZ struct {
	drawer display.Drawer
	count  int
	hw     bool
}

// NewNRZ opens the SPI port named spiPort ("" selects the first available)
// and prepares an nrzled device for count pixels.
func NewNRZ(spiPort string, count int) (*NRZ, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid pixel count: %d", count)
	}
	p, err := spireg.Open(spiPort)
	if err != nil {
		fmt.Printf("Failed to find a SPI port, printing at the console:\n")
		return &NRZ{drawer: screen.New(100), count: count}, nil
	}
	d, err := newNRZDev(p, count)
	if err != nil {
		return nil, err
	}
	return &NRZ{drawer: d, count: count, hw: true}, nil
}

// NewNRZFromPort wires an already opened SPI port. Tests use this with
// spitest playback.
func NewNRZFromPort(p spi.Port, count int) (*NRZ, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid pixel count: %d", count)
	}
	d, err := newNRZDev(p, count)
	if err != nil {
		return nil, err
	}
	return &NRZ{drawer: d, count: count, hw: true}, nil
}

func newNRZDev(p spi.Port, count int) (*nrzled.Dev, error) {
	opts := nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      ((nrzRate * 3) + 100) * physic.KiloHertz,
	}
	d, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	_ = d.Halt()
	return d, nil
}

// Hardware reports whether frames reach a real SPI port rather than the
// console fallback.
func (n *NRZ) Hardware() bool { return n.hw }

func (n *NRZ) Write(rgb []byte) error {
	if len(rgb) != n.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), n.count)
	}
	img := image.NewNRGBA(image.Rect(0, 0, n.count, 1))
	for x := 0; x < n.count; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{
			R: rgb[x*3+0],
			G: rgb[x*3+1],
			B: rgb[x*3+2],
			A: 255,
		})
	}
	if err := n.drawer.Draw(n.drawer.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}

func (n *NRZ) Close() error {
	return n.drawer.Halt()
}
