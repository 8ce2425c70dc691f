// Package midiin connects a hardware MIDI input port to a control.Queue.
package midiin

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/guidoenr/spectralmesh/internal/control"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrNoPorts is returned when no MIDI input port exists.
var ErrNoPorts = errors.New("no MIDI input ports available")

// Config selects the input port. Name takes precedence over Index when set.
type Config struct {
	Index int
	Name  string
	Depth int
}

// Listener decodes messages from one MIDI input port into a control.Queue.
type Listener struct {
	port     drivers.In
	queue    *control.Queue
	stopFunc func()

	lastErr atomic.Value
	errors  atomic.Uint64
}

// Open connects to the configured input port and starts decoding.
func Open(cfg Config) (*Listener, error) {
	port, err := findPort(cfg)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		port:  port,
		queue: control.NewQueue(cfg.Depth),
	}

	stop, err := gomidi.ListenTo(port, l.handle, gomidi.HandleError(l.handleError))
	if err != nil {
		return nil, fmt.Errorf("listen to %q: %w", port.String(), err)
	}
	l.stopFunc = stop
	return l, nil
}

func (l *Listener) handle(msg gomidi.Message, timestampms int32) {
	l.queue.PushRaw(msg.Bytes())
}

func (l *Listener) handleError(err error) {
	l.errors.Add(1)
	l.lastErr.Store(err.Error())
}

// Queue returns the command queue fed by this listener.
func (l *Listener) Queue() *control.Queue {
	return l.queue
}

// PortName returns the connected port name.
func (l *Listener) PortName() string {
	return l.port.String()
}

// Errors returns the number of stream errors seen and the most recent message.
func (l *Listener) Errors() (uint64, string) {
	msg, _ := l.lastErr.Load().(string)
	return l.errors.Load(), msg
}

// Close stops listening and releases the port.
func (l *Listener) Close() error {
	if l.stopFunc != nil {
		l.stopFunc()
		l.stopFunc = nil
	}
	if l.port != nil && l.port.IsOpen() {
		return l.port.Close()
	}
	return nil
}

// CloseDriver releases the MIDI driver. Call once at shutdown.
func CloseDriver() {
	gomidi.CloseDriver()
}

// ListPorts returns the names of all MIDI input ports in index order.
func ListPorts() []string {
	ins := gomidi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

func findPort(cfg Config) (drivers.In, error) {
	ins := gomidi.GetInPorts()
	if len(ins) == 0 {
		return nil, ErrNoPorts
	}

	if cfg.Name != "" {
		name := strings.ToLower(cfg.Name)
		for _, in := range ins {
			if strings.Contains(strings.ToLower(in.String()), name) {
				return in, nil
			}
		}
		return nil, fmt.Errorf("MIDI input %q not found", cfg.Name)
	}

	if cfg.Index < 0 || cfg.Index >= len(ins) {
		return nil, fmt.Errorf("MIDI port %d not available (found %d ports)", cfg.Index, len(ins))
	}
	return ins[cfg.Index], nil
}
