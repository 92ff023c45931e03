package events

import (
	"slices"

	"github.com/charmbracelet/log"
)

// Sink receives events synchronously on the control thread.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Bus fans each event out to its subscribers in subscription order.
type Bus struct {
	sinks []Sink
}

func NewBus(sinks ...Sink) *Bus {
	b := &Bus{}
	for _, s := range sinks {
		b.Subscribe(s)
	}
	return b
}

// Subscribe adds s. Nil sinks are ignored.
func (b *Bus) Subscribe(s Sink) {
	if s == nil {
		return
	}
	b.sinks = append(b.sinks, s)
}

func (b *Bus) Emit(e Event) {
	for _, s := range b.sinks {
		s.Emit(e)
	}
}

// Recorder collects events for later inspection.
type Recorder struct {
	events []Event
}

func (r *Recorder) Emit(e Event) { r.events = append(r.events, e) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event { return slices.Clone(r.events) }

// Kinds returns the recorded kinds in order.
func (r *Recorder) Kinds() []Kind {
	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Filter returns the recorded events of kind k.
func (r *Recorder) Filter(k Kind) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether an event of kind k with the given subject was recorded.
func (r *Recorder) Has(k Kind, subject string) bool {
	return slices.ContainsFunc(r.events, func(e Event) bool { return e.Kind == k && e.Subject == subject })
}

func (r *Recorder) Reset() { r.events = r.events[:0] }

// ChannelSink forwards events to a channel without blocking; events are dropped when the channel is full.
type ChannelSink struct {
	ch      chan<- Event
	dropped int
}

func NewChannelSink(ch chan<- Event) *ChannelSink {
	return &ChannelSink{ch: ch}
}

func (c *ChannelSink) Emit(e Event) {
	if c.ch == nil {
		return
	}
	select {
	case c.ch <- e:
	default:
		c.dropped++
	}
}

// Dropped is the number of events skipped because the channel was full.
func (c *ChannelSink) Dropped() int { return c.dropped }

// LogSink writes events to a structured logger. Errors log at warn, volume chatter at debug.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(l *log.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Emit(e Event) {
	kv := []any{"kind", e.Kind.String()}
	if e.Subject != "" {
		kv = append(kv, "id", e.Subject)
	}
	if e.ClipID != "" && e.ClipID != e.Subject {
		kv = append(kv, "clip", e.ClipID)
	}
	switch e.Kind {
	case ClipRegistered, ClipUpdated, ClipRemoved, ClipRejected:
	default:
		kv = append(kv, "channel", e.Channel.String(), "t", e.Time)
	}

	switch e.Kind {
	case AudioError, ClipRejected:
		s.logger.Warn(e.Detail, kv...)
	case SessionVolume, ChannelVolumeChanged, MasterVolumeChanged:
		s.logger.Debug(e.Detail, append(kv, "volume", e.Volume)...)
	default:
		s.logger.Info(e.Detail, kv...)
	}
}
