package midifile

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	KindNoteOff EventKind = iota
	KindNoteOn
	KindKeyPressure
	KindControlChange
	KindProgramChange
	KindChannelPressure
	KindPitchWheel
	KindSysex
	KindMetaText
	KindMetaBinary
	KindSetTempo
	KindEndOfTrack
	KindUndefined
)

var kindNames = [...]string{
	"note-off", "note-on", "key-pressure", "control-change", "program-change",
	"channel-pressure", "pitch-wheel", "sysex", "meta-text", "meta-binary",
	"set-tempo", "end-of-track", "undefined",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is one decoded event with its position in merged time.
type Event struct {
	Kind  EventKind `json:"kind"`
	Track int       `json:"track"`
	Tick  uint64    `json:"tick"`
	Bar   int       `json:"bar"`
	Muted bool      `json:"muted,omitempty"`

	Channel      int      `json:"channel,omitempty"`
	Key          int      `json:"key,omitempty"`   // pitch, controller or program
	Value        int      `json:"value,omitempty"` // velocity, pressure, setting, wheel or tempo
	Meta         MetaKind `json:"meta,omitempty"`
	Text         string   `json:"text,omitempty"`
	Data         []byte   `json:"data,omitempty"`
	Continuation bool     `json:"continuation,omitempty"`
	Status       byte     `json:"status,omitempty"`
}

// Recorder keeps every delay and event it receives, stamped with the
// accumulated tick count.
type Recorder struct {
	FileHeader Header
	Steps      []Step
	Events     []Event

	tick uint64
	bar  int
	mute bool
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Event) error {
	e.Tick, e.Bar, e.Muted = r.tick, r.bar, r.mute
	r.Events = append(r.Events, e)
	return nil
}

// Count returns how many recorded events have kind k.
func (r *Recorder) Count(k EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Ticks returns the total ticks delivered through Delay.
func (r *Recorder) Ticks() uint64 { return r.tick }

func (r *Recorder) Header(h Header) error {
	r.FileHeader = h
	return nil
}

func (r *Recorder) Delay(s Step) error {
	r.Steps = append(r.Steps, s)
	r.tick += uint64(s.Ticks)
	r.bar, r.mute = s.Bar, s.Mute
	return nil
}

func (r *Recorder) NoteOff(track, channel, pitch, velocity int) error {
	return r.add(Event{Kind: KindNoteOff, Track: track, Channel: channel, Key: pitch, Value: velocity})
}

func (r *Recorder) NoteOn(track, channel, pitch, velocity int) error {
	return r.add(Event{Kind: KindNoteOn, Track: track, Channel: channel, Key: pitch, Value: velocity})
}

func (r *Recorder) KeyPressure(track, channel, pitch, pressure int) error {
	return r.add(Event{Kind: KindKeyPressure, Track: track, Channel: channel, Key: pitch, Value: pressure})
}

func (r *Recorder) ControlChange(track, channel, controller, value int) error {
	return r.add(Event{Kind: KindControlChange, Track: track, Channel: channel, Key: controller, Value: value})
}

func (r *Recorder) ProgramChange(track, channel, program int) error {
	return r.add(Event{Kind: KindProgramChange, Track: track, Channel: channel, Key: program})
}

func (r *Recorder) ChannelPressure(track, channel, pressure int) error {
	return r.add(Event{Kind: KindChannelPressure, Track: track, Channel: channel, Value: pressure})
}

func (r *Recorder) PitchWheel(track, channel, value int) error {
	return r.add(Event{Kind: KindPitchWheel, Track: track, Channel: channel, Value: value})
}

func (r *Recorder) Sysex(track int, data []byte, continuation bool) error {
	return r.add(Event{Kind: KindSysex, Track: track, Data: data, Continuation: continuation})
}

func (r *Recorder) MetaText(track int, kind MetaKind, text string) error {
	return r.add(Event{Kind: KindMetaText, Track: track, Meta: kind, Text: text})
}

func (r *Recorder) MetaBinary(track int, kind MetaKind, data []byte) error {
	return r.add(Event{Kind: KindMetaBinary, Track: track, Meta: kind, Data: data})
}

func (r *Recorder) SetTempo(track, usPerQuarter int) error {
	return r.add(Event{Kind: KindSetTempo, Track: track, Value: usPerQuarter})
}

func (r *Recorder) EndOfTrack(track int) error {
	return r.add(Event{Kind: KindEndOfTrack, Track: track})
}

func (r *Recorder) Undefined(track int, status byte, data []byte) error {
	return r.add(Event{Kind: KindUndefined, Track: track, Status: status, Data: data})
}
