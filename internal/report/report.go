// Package report carries user-facing, severity-tagged messages.
//
// Every step of a patch run that the operator should see (an applied file, a
// missing target, a cleanup warning) is sent to a Sink. The CLI renders
// reports to the terminal, LogSink forwards them to zerolog, and Recorder keeps
// them in memory for tests and JSON output.
package report

import (
	"sync"

	"github.com/rs/zerolog"
)

// Severity classifies a report message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is a single report message.
type Entry struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Sink accepts severity-tagged messages.
type Sink interface {
	Report(severity Severity, message string)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(severity Severity, message string)

// Report calls f.
func (f SinkFunc) Report(severity Severity, message string) {
	f(severity, message)
}

// Discard drops every message.
var Discard Sink = SinkFunc(func(Severity, string) {})

// Multi fans a message out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(severity Severity, message string) {
		for _, s := range sinks {
			if s != nil {
				s.Report(severity, message)
			}
		}
	})
}

// Recorder keeps every message it receives.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report records the message.
func (r *Recorder) Report(severity Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Severity: severity, Message: message})
}

// Entries returns a copy of the recorded messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// BySeverity returns the recorded messages with the given severity.
func (r *Recorder) BySeverity(severity Severity) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Severity == severity {
			out = append(out, e)
		}
	}
	return out
}

// LogSink forwards reports to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Report logs the message at the level matching its severity.
func (s *LogSink) Report(severity Severity, message string) {
	s.logger.WithLevel(Level(severity)).Str("severity", string(severity)).Msg(message)
}

// Level maps a severity to a zerolog level. Success is logged as info.
func Level(severity Severity) zerolog.Level {
	switch severity {
	case SeverityWarning:
		return zerolog.WarnLevel
	case SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
