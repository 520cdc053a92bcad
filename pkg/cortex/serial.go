package cortex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the rate the firmware configures its serial port to.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size of the sample channel buffer.
	// Half a second of headroom at 250 Hz.
	DefaultBufferSize = 128
	// eventBufferSize bounds the event channel; events are rare.
	eventBufferSize = 32
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to a CortexKey device over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	samples   chan Sample
	events    chan Event
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device with the specified port, baud rate, and
// sample buffer size. Zero values select the defaults.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		samples:   make(chan Sample, bufSize),
		events:    make(chan Event, eventBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}

	return result, nil
}

// FindPort returns the first available port whose name suggests a USB-serial
// adapter of the kind the device enumerates as, or "" if none match.
func FindPort() string {
	ports, err := serial.GetPortsList()
	if err != nil {
		return ""
	}
	hints := []string{"usbserial", "usbmodem", "wchusbserial", "ttyusb", "ttyacm"}
	for _, name := range ports {
		lower := strings.ToLower(name)
		for _, hint := range hints {
			if strings.Contains(lower, hint) {
				return name
			}
		}
	}
	return ""
}

// Connect opens the serial port and starts reading the device stream.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	// Start reading the stream in a goroutine.
	go d.readLines()

	return nil
}

// Close closes the connection and stops reading.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	// Cancel context to stop the reading goroutine.
	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	close(d.samples)
	close(d.events)

	return nil
}

// Samples returns the channel of acquisition records.
func (d *Serial) Samples() <-chan Sample {
	return d.samples
}

// Events returns the channel of status, error and banner lines.
func (d *Serial) Events() <-chan Event {
	return d.events
}

// Send transmits one command line to the device.
func (d *Serial) Send(cmd string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines reads lines from the serial port and routes them to the sample
// and event channels.
func (d *Serial) readLines() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF or error)
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			dispatch(line, time.Now(), d.samples, d.events)
		}
	}
}

// dispatch classifies one trimmed, non-empty line and forwards it without
// blocking; both channel sends drop when the consumer lags.
func dispatch(line string, now time.Time, samples chan<- Sample, events chan<- Event) {
	if strings.HasPrefix(line, "DATA,") {
		sample, err := parseData(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			return
		}
		sample.At = now

		select {
		case samples <- sample:
		default:
			log.Printf("Samples channel full, dropping sample")
		}
		return
	}

	ev := Event{At: now}
	switch {
	case strings.HasPrefix(line, "STATUS:"):
		ev.Kind = EventStatus
		ev.Text = strings.TrimPrefix(line, "STATUS:")
	case strings.HasPrefix(line, "ERROR:"):
		ev.Kind = EventError
		ev.Text = strings.TrimPrefix(line, "ERROR:")
	case line == ReadyMarker:
		ev.Kind = EventReady
		ev.Text = line
	default:
		ev.Kind = EventBanner
		ev.Text = line
	}

	select {
	case events <- ev:
	default:
		log.Printf("Events channel full, dropping event")
	}
}

// parseData parses a data record line from the device.
// Format: DATA,<elapsed_ms>,<value>
// Example: DATA,1234,-12.345
func parseData(line string) (Sample, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Sample{}, fmt.Errorf("invalid data format: expected 3 comma-separated values, got %d", len(parts))
	}

	elapsedMs, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("invalid elapsed timestamp: %w", err)
	}

	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("invalid value: %w", err)
	}

	return Sample{
		Elapsed: time.Duration(elapsedMs) * time.Millisecond,
		Value:   value,
	}, nil
}
