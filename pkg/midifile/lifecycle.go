package midifile

import "errors"

// ErrNotOpen is returned by device sinks used before Open or after Close.
var ErrNotOpen = errors.New("sink is not open")

// Lifecycle is the state of a sink that owns a device.
type Lifecycle int

const (
	Unopened Lifecycle = iota
	Open
	Closed
)

func (l Lifecycle) String() string {
	switch l {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}
