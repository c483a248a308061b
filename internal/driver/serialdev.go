package driver

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const serialReadTimeout = time.Second / 2

// Serial speaks the AT command protocol of NeoPixel USB dongles such as the
// Adafruit NeoTrinkey busylight firmware: AT+C=r,g,b sets every bead at once,
// AT+B=n sets the dongle's own brightness.
type Serial struct {
	mu   sync.Mutex
	port serial.Port
}

// NewSerial scans USB serial ports for the given VID/PID pair and performs
// an AT handshake on the first match.
func NewSerial(vid, pid string) (*Serial, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	for _, p := range ports {
		if p.VID != vid || p.PID != pid {
			continue
		}
		return OpenSerial(p.Name)
	}
	return nil, fmt.Errorf("no serial device with VID %s PID %s", vid, pid)
}

// OpenSerial opens a known port name directly, skipping discovery.
func OpenSerial(name string) (*Serial, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		_ = port.Close()
		return nil, err
	}
	s := &Serial{port: port}
	if err := s.command("AT"); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	return s, nil
}

// command sends one AT line and waits for the OK acknowledgement.
func (s *Serial) command(cmd string) error {
	if err := s.port.ResetInputBuffer(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.port, "%s\n", cmd); err != nil {
		return err
	}
	buf := make([]byte, 128)
	n, err := s.port.Read(buf)
	if err != nil {
		return err
	}
	if n < 2 || string(buf[:2]) != "OK" {
		return fmt.Errorf("device answered %q", string(buf[:n]))
	}
	return nil
}

// Write sends the first pixel's color; the dongle mirrors it on every bead.
func (s *Serial) Write(rgb []byte) error {
	if len(rgb) < 3 {
		return fmt.Errorf("rgb frame too short: %d bytes", len(rgb))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command(fmt.Sprintf("AT+C=%d,%d,%d", rgb[0], rgb[1], rgb[2]))
}

// SetBrightness drives the dongle's native AT+B command. The firmware takes
// 0..100, so the 0..255 level is rescaled. Callers that already dim in
// software should not combine the two or the bead dims twice.
func (s *Serial) SetBrightness(level uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command(fmt.Sprintf("AT+B=%d", int(level)*100/255))
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
