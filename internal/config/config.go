package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2400000
	ResetUs int    `yaml:"reset_us"` // e.g. 300
}

type Serial struct {
	VID  string `yaml:"vid"`
	PID  string `yaml:"pid"`
	Port string `yaml:"port,omitempty"` // explicit device path skips discovery
}

type Config struct {
	Driver     string   `yaml:"driver"` // "nrz" | "spidev" | "ws281x" | "serial"
	GPIO       int      `yaml:"gpio"`
	Count      int      `yaml:"count"`
	ColorOrder string   `yaml:"color_order"`
	Brightness uint8    `yaml:"brightness"`
	Color      [3]uint8 `yaml:"color,flow"`
	Cycle      bool     `yaml:"cycle"`
	Mode       string   `yaml:"mode,omitempty"` // "palette" | "rainbow"
	WaitMs     int      `yaml:"wait_ms"`
	Addr       string   `yaml:"addr,omitempty"`

	SPI    SPI    `yaml:"spi,omitempty"`
	Serial Serial `yaml:"serial,omitempty"`
}

// Default mirrors the stock firmware: one bead on GPIO 8, full brightness,
// half-second color steps.
func Default() *Config {
	return &Config{
		Driver:     "nrz",
		GPIO:       8,
		Count:      1,
		ColorOrder: "GRB",
		Brightness: 255,
		Cycle:      true,
		Mode:       "palette",
		WaitMs:     500,
		Addr:       ":8080",
		SPI:        SPI{Dev: "/dev/spidev0.0", SpeedHz: 2400000, ResetUs: 300},
		Serial:     Serial{VID: "239A", PID: "80F0"},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
