package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/promisedneverland/neopixel/internal/config"
	"github.com/promisedneverland/neopixel/internal/cycle"
	"github.com/promisedneverland/neopixel/internal/driver"
	"github.com/promisedneverland/neopixel/internal/pixel"
	"github.com/promisedneverland/neopixel/internal/server"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		drvName    = flag.String("driver", "", "driver: nrz | spidev | ws281x | serial")
		gpio       = flag.Int("gpio", 0, "data pin (BCM number) for the ws281x driver")
		count      = flag.Int("count", 0, "number of beads on the chain")
		colorOrder = flag.String("color-order", "", "LED wire order (e.g. GRB, RGB)")
		brightness = flag.Int("brightness", -1, "initial brightness 0..255")
		doCycle    = flag.Bool("cycle", false, "cycle through colors instead of holding one")
		mode       = flag.String("mode", "", "cycle mode: palette | rainbow")
		waitMs     = flag.Int("wait-ms", 0, "pause between cycle steps (ms)")
		addr       = flag.String("addr", "", "HTTP listen address")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config (optional file; explicit flags win) ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
	} else {
		cfg = c
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = *drvName
		case "gpio":
			cfg.GPIO = *gpio
		case "count":
			cfg.Count = *count
		case "color-order":
			cfg.ColorOrder = *colorOrder
		case "brightness":
			cfg.Brightness = clampByte(*brightness)
		case "cycle":
			cfg.Cycle = *doCycle
		case "mode":
			cfg.Mode = *mode
		case "wait-ms":
			cfg.WaitMs = *waitMs
		case "addr":
			cfg.Addr = *addr
		}
	})

	// ---- Driver ----
	drv, err := openDriver(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("driver init failed")
	}
	log.Info().Str("driver", cfg.Driver).Int("count", cfg.Count).Msg("driver ready")

	// ---- Pixel + control surface ----
	state := server.NewState()
	px := pixel.New(state.Tap(drv), pixel.Options{Count: cfg.Count, Brightness: cfg.Brightness})

	var (
		cycMu     sync.Mutex
		cycCancel context.CancelFunc
	)
	stopCycle := func() {
		cycMu.Lock()
		defer cycMu.Unlock()
		if cycCancel != nil {
			cycCancel()
			cycCancel = nil
		}
	}
	startCycle := func(wait time.Duration) {
		stopCycle()
		cycMu.Lock()
		defer cycMu.Unlock()
		ctx, cancel := context.WithCancel(context.Background())
		cycCancel = cancel
		cyc := cycle.New(px, cycle.Mode(cfg.Mode))
		go func() {
			if err := cyc.Run(ctx, wait); err != nil {
				log.Error().Err(err).Msg("cycle stopped")
			}
		}()
	}
	state.Bind(px, server.Hooks{
		SetColor: func(r, g, b uint8) {
			if err := px.SetColor(r, g, b); err != nil {
				log.Error().Err(err).Msg("set color")
			}
		},
		SetBrightness: func(level uint8) {
			if err := px.SetBrightness(level); err != nil {
				log.Error().Err(err).Msg("set brightness")
			}
		},
		StartCycle: startCycle,
		StopCycle:  stopCycle,
	})

	// ---- HTTP ----
	if cfg.Addr != "" {
		mux := http.NewServeMux()
		state.Routes(mux)
		go func() {
			log.Info().Str("addr", cfg.Addr).Msg("listening")
			if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
				log.Error().Err(err).Msg("http server")
			}
		}()
	}

	// ---- Initial state ----
	wait := time.Duration(cfg.WaitMs) * time.Millisecond
	if cfg.Cycle {
		startCycle(wait)
	} else {
		if err := px.SetColor(cfg.Color[0], cfg.Color[1], cfg.Color[2]); err != nil {
			log.Error().Err(err).Msg("initial color")
		}
	}

	// ---- Shutdown ----
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.Info().Str("signal", sig.String()).Msg("shutting down")
	stopCycle()
	if err := px.Off(); err != nil {
		log.Warn().Err(err).Msg("clear pixel")
	}
	if err := drv.Close(); err != nil {
		log.Warn().Err(err).Msg("close driver")
	}
}

// clampByte pins an int flag value to 0..255; a plain uint8 conversion
// would wrap out-of-range values instead.
func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func openDriver(cfg *config.Config) (driver.Driver, error) {
	switch cfg.Driver {
	case "nrz", "":
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		return driver.NewNRZ("", cfg.Count)
	case "spidev":
		return driver.NewSPIDev(cfg.SPI.Dev, cfg.Count, cfg.ColorOrder, cfg.SPI.SpeedHz, cfg.SPI.ResetUs)
	case "ws281x":
		return driver.NewWS281x(cfg.GPIO, cfg.Count)
	case "serial":
		if cfg.Serial.Port != "" {
			return driver.OpenSerial(cfg.Serial.Port)
		}
		return driver.NewSerial(cfg.Serial.VID, cfg.Serial.PID)
	default:
		return nil, driver.ErrUnsupported
	}
}
