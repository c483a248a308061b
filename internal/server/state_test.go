package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/promisedneverland/neopixel/internal/driver/fake"
	"github.com/promisedneverland/neopixel/internal/pixel"
)

func TestHealthReportsPixelState(t *testing.T) {
	s := NewState()
	drv := &fake.Driver{}
	px := pixel.New(s.Tap(drv), pixel.DefaultOptions)
	s.Bind(px, Hooks{})

	if err := px.SetColor(1, 2, 3); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("health body: %v", err)
	}
	if resp["frame_id"].(float64) != 1 {
		t.Fatalf("frame_id: got %v", resp["frame_id"])
	}
	if resp["brightness"].(float64) != 255 {
		t.Fatalf("brightness: got %v", resp["brightness"])
	}
	col := resp["color"].([]any)
	if col[0].(float64) != 1 || col[1].(float64) != 2 || col[2].(float64) != 3 {
		t.Fatalf("color: got %v", col)
	}
}

func TestHealthDuringColorWrites(t *testing.T) {
	s := NewState()
	drv := &fake.Driver{}
	px := pixel.New(s.Tap(drv), pixel.DefaultOptions)
	s.Bind(px, Hooks{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := px.SetColor(uint8(i), 0, 0); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			rec := httptest.NewRecorder()
			s.HandleHealth(rec, httptest.NewRequest("GET", "/health", nil))
		}
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("health and color writes deadlocked")
	}
}

func TestFramesWebsocketBroadcast(t *testing.T) {
	s := NewState()
	drv := &fake.Driver{}
	px := pixel.New(s.Tap(drv), pixel.DefaultOptions)
	s.Bind(px, Hooks{})

	mux := http.NewServeMux()
	s.Routes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/frames"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The first message is the status snapshot, sent before the conn
	// joins the broadcast set.
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var status map[string]any
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if _, ok := status["brightness"]; !ok {
		t.Fatalf("first message is not a status snapshot: %v", status)
	}

	// Keep writing until a frame lands; registration races the first
	// write, so a single SetColor could slip past an unregistered conn.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			_ = px.SetColor(1, 2, 3)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	deadline := time.Now().Add(3 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("no frame received")
		}
		var frame struct {
			FrameID uint64 `json:"frame_id"`
			RGB     []byte `json:"rgb"`
		}
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if len(frame.RGB) == 0 {
			continue
		}
		if frame.FrameID == 0 {
			t.Fatalf("frame id not assigned: %+v", frame)
		}
		if frame.RGB[0] != 1 || frame.RGB[1] != 2 || frame.RGB[2] != 3 {
			t.Fatalf("frame rgb: got %v", frame.RGB)
		}
		return
	}
}

func TestTapForwardsFrames(t *testing.T) {
	s := NewState()
	drv := &fake.Driver{}
	tapped := s.Tap(drv)

	if err := tapped.Write([]byte{9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	if drv.Count() != 1 {
		t.Fatalf("inner driver saw %d frames", drv.Count())
	}
}

func TestApplyControlDispatch(t *testing.T) {
	var (
		gotColor  [3]uint8
		gotBright               = uint8(1)
		started   time.Duration = -1
		stopped   int
	)
	s := NewState()
	s.Bind(nil, Hooks{
		SetColor:      func(r, g, b uint8) { gotColor = [3]uint8{r, g, b} },
		SetBrightness: func(level uint8) { gotBright = level },
		StartCycle:    func(wait time.Duration) { started = wait },
		StopCycle:     func() { stopped++ },
	})

	s.ApplyControl(map[string]any{"color": []any{float64(9), float64(8), float64(7)}})
	if gotColor != [3]uint8{9, 8, 7} {
		t.Fatalf("color: got %v", gotColor)
	}
	if stopped != 1 {
		t.Fatal("setting a color should stop a running cycle")
	}

	s.ApplyControl(map[string]any{"brightness": float64(300)})
	if gotBright != 255 {
		t.Fatalf("brightness should clamp to 255, got %d", gotBright)
	}

	s.ApplyControl(map[string]any{"cycle": true, "wait_ms": float64(250)})
	if started != 250*time.Millisecond {
		t.Fatalf("start cycle wait: got %v", started)
	}

	s.ApplyControl(map[string]any{"cycle": false})
	if stopped != 2 {
		t.Fatalf("stop count: got %d", stopped)
	}
}
