package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/itohio/trainspeed/pkg/report"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate the timing firmware uses.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the events channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Open opens a serial port in the mode the firmware uses.
func Open(port string, baudRate int) (serial.Port, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}

// Serial reads timing events from a speed trap on a serial port.
type Serial struct {
	port     string
	baudRate int

	conn      serial.Port
	events    chan report.Event
	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
	closed    bool
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		events:   make(chan report.Event, bufSize),
	}
}

// Connect opens the serial port and starts reading events.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.closed {
		return fmt.Errorf("device closed")
	}

	port, err := Open(d.port, d.baudRate)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.conn = port
	d.cancel = cancel
	d.done = make(chan struct{})
	d.connected = true

	go func() {
		defer close(d.done)
		readEvents(ctx, port, d.events)
	}()

	return nil
}

// Close closes the port and the events channel once the reader has stopped.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	<-d.done
	d.connected = false
	d.closed = true
	close(d.events)

	return nil
}

// Events returns the channel of parsed events.
func (d *Serial) Events() <-chan report.Event {
	return d.events
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readEvents parses lines from r until EOF or ctx is done. Lines that do not
// parse are logged and skipped.
func readEvents(ctx context.Context, r io.Reader, events chan<- report.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readEvents: %v", r)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ev, err := report.ParseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}
		ev.Time = time.Now()

		select {
		case <-ctx.Done():
			return
		default:
		}

		// Send event to channel (non-blocking)
		select {
		case events <- ev:
		default:
			log.Printf("Events channel full, dropping %s event", ev.Kind)
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}
