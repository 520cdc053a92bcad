package cortex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/vabhinavrao/cortexkey/pkg/config"
	"github.com/vabhinavrao/cortexkey/pkg/device"
	"github.com/vabhinavrao/cortexkey/pkg/signal"
)

// Mock simulates a CortexKey device for development and testing. It is not a
// canned data player: it runs the real firmware control loop in-process
// against the wall clock and feeds its output through the same line parser
// as the serial transport, so mode transitions, gesture handling and the
// sample cadence all behave exactly like hardware.
type Mock struct {
	cfg *config.Config

	samples chan Sample
	events  chan Event
	cmds    chan string
	hw      *mockHardware

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	pw       *io.PipeWriter
	runDone  chan struct{}
	readDone chan struct{}
}

// NewMock creates a new mocked device instance. A nil cfg uses defaults.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:     cfg,
		samples: make(chan Sample, DefaultBufferSize),
		events:  make(chan Event, eventBufferSize),
		cmds:    make(chan string, 8),
		hw:      &mockHardware{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect starts the simulated device loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	seed := m.cfg.Signal.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := signal.New(rand.New(rand.NewSource(seed)))

	pr, pw := io.Pipe()
	m.pw = pw

	dev := device.New(device.Config{
		Hardware: m.hw,
		Commands: chanLineSource(m.cmds),
		Output:   pw,
		Source: func(p device.Profile, elapsed float32) float32 {
			if p == device.ProfileAdversarial {
				return gen.Adversarial(elapsed)
			}
			return gen.Cooperative(elapsed)
		},
		SampleInterval: m.cfg.Acquisition.SampleInterval,
		Debounce:       m.cfg.Acquisition.Debounce,
		LongPress:      m.cfg.Acquisition.LongPress,
		TestDuration:   m.cfg.Acquisition.TestDuration,
	})

	m.runDone = make(chan struct{})
	m.readDone = make(chan struct{})

	// Reader side of the pipe: identical routing to the serial transport.
	go func() {
		defer close(m.readDone)
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			dispatch(line, time.Now(), m.samples, m.events)
		}
	}()

	// Writer side: startup banner, then the control loop until Close.
	go func() {
		defer close(m.runDone)
		fmt.Fprint(pw, "========================================\n")
		fmt.Fprint(pw, "  CortexKey simulated device\n")
		fmt.Fprint(pw, "========================================\n")
		fmt.Fprintln(pw, ReadyMarker)
		dev.Run(m.ctx)
	}()

	m.connected = true
	return nil
}

// Close stops the simulated device and its channels.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.runDone

	// EOF the reader, then wait for it before closing the channels.
	m.pw.Close()
	<-m.readDone

	m.connected = false
	close(m.samples)
	close(m.events)

	return nil
}

// Samples returns the channel of acquisition records.
func (m *Mock) Samples() <-chan Sample {
	return m.samples
}

// Events returns the channel of status, error and banner lines.
func (m *Mock) Events() <-chan Event {
	return m.events
}

// Send queues one command line for the simulated device.
func (m *Mock) Send(cmd string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	select {
	case m.cmds <- cmd:
		return nil
	default:
		return fmt.Errorf("command buffer full")
	}
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// TapValid simulates a short press of the valid-user button.
func (m *Mock) TapValid() { m.press(true, 4*m.cfg.Acquisition.Debounce) }

// TapInvalid simulates a short press of the invalid-user button.
func (m *Mock) TapInvalid() { m.press(false, 4*m.cfg.Acquisition.Debounce) }

// HoldStop holds the valid-user button past the long-press threshold,
// simulating the stop gesture.
func (m *Mock) HoldStop() {
	m.press(true, m.cfg.Acquisition.LongPress+200*time.Millisecond)
}

// Indicator returns the simulated activity indicator state.
func (m *Mock) Indicator() bool { return m.hw.IndicatorOn() }

func (m *Mock) press(valid bool, hold time.Duration) {
	m.hw.setPressed(valid, true)
	time.AfterFunc(hold, func() { m.hw.setPressed(valid, false) })
}

// mockHardware provides the simulated button lines and indicator. The
// control loop reads it from its own goroutine, so access is locked.
type mockHardware struct {
	mu             sync.Mutex
	validPressed   bool
	invalidPressed bool
	indicator      bool
}

func (h *mockHardware) ButtonValid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.validPressed // line idles high, low while pressed
}

func (h *mockHardware) ButtonInvalid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.invalidPressed
}

func (h *mockHardware) SetIndicator(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.indicator = on
}

func (h *mockHardware) IndicatorOn() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.indicator
}

func (h *mockHardware) setPressed(valid, pressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if valid {
		h.validPressed = pressed
	} else {
		h.invalidPressed = pressed
	}
}

// chanLineSource adapts a channel of lines to the control loop's
// non-blocking command source.
type chanLineSource chan string

func (c chanLineSource) ReadLine() (string, bool) {
	select {
	case line := <-c:
		return line, true
	default:
		return "", false
	}
}
