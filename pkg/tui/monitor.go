package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/smfplay/pkg/midifile"
)

// monitor reports the playback position to the UI. It never blocks the
// player: updates are dropped while the UI is behind.
type monitor struct {
	midifile.Discard

	updates chan<- tea.Msg
	ticks   uint64
	notes   int
}

func newMonitor(updates chan<- tea.Msg) *monitor {
	return &monitor{updates: updates}
}

func (m *monitor) Delay(s midifile.Step) error {
	m.ticks += uint64(s.Ticks)
	if s.Ticks == 0 {
		return nil
	}
	select {
	case m.updates <- progressMsg{bar: s.Bar, ticks: m.ticks, notes: m.notes, mute: s.Mute}:
	default:
	}
	return nil
}

func (m *monitor) NoteOn(track, channel, pitch, velocity int) error {
	if velocity > 0 {
		m.notes++
	}
	return nil
}
