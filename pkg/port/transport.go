package port

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Transport carries raw MIDI messages to a synthesizer.
type Transport interface {
	Send(msg []byte) error
	Close() error
}

type driverTransport struct {
	out drivers.Out
}

func (t *driverTransport) Send(msg []byte) error {
	return t.out.Send(msg)
}

func (t *driverTransport) Close() error {
	return t.out.Close()
}

// OutPorts lists the output ports of the registered MIDI driver.
func OutPorts() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// OpenDriver opens an output port by name, or by number when name is all
// digits.
func OpenDriver(name string) (Transport, error) {
	var (
		out drivers.Out
		err error
	)
	if n, convErr := strconv.Atoi(name); convErr == nil {
		out, err = midi.OutPort(n)
	} else {
		out, err = midi.FindOutPort(name)
	}
	if err != nil {
		return nil, fmt.Errorf("output port %q: %w", name, err)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("open output port %q: %w", name, err)
	}
	return &driverTransport{out: out}, nil
}

type writerTransport struct {
	w io.WriteCloser
}

func (t *writerTransport) Send(msg []byte) error {
	_, err := t.w.Write(msg)
	return err
}

func (t *writerTransport) Close() error {
	return t.w.Close()
}

// NewWriter returns a transport writing raw bytes to w, as to a raw MIDI
// device file.
func NewWriter(w io.WriteCloser) Transport {
	return &writerTransport{w: w}
}

// OpenDevice opens a raw MIDI device such as /dev/midi or /dev/snd/midiC0D0.
func OpenDevice(path string) (Transport, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	return NewWriter(f), nil
}
