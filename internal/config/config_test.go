package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("driver: spidev\nbrightness: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Driver != "spidev" {
		t.Fatalf("driver: got %q", c.Driver)
	}
	if c.Brightness != 10 {
		t.Fatalf("brightness: got %d", c.Brightness)
	}
	// Unset keys keep firmware defaults.
	if c.GPIO != 8 {
		t.Fatalf("gpio default: got %d", c.GPIO)
	}
	if c.WaitMs != 500 {
		t.Fatalf("wait_ms default: got %d", c.WaitMs)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	in := Default()
	in.Driver = "serial"
	in.Color = [3]uint8{12, 34, 56}
	in.Serial.Port = "/dev/ttyACM0"
	if err := Save(p, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *out != *in {
		t.Fatalf("roundtrip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
