// Package tests holds helpers shared by the statechart test suites.
package tests

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/stateforward/go-statechart/embedded"
)

// Recorder collects trace steps as "step name" lines.
type Recorder struct {
	mutex sync.Mutex
	steps []string
}

// Trace has the signature of statechart.Trace.
func (recorder *Recorder) Trace(ctx context.Context, step string, elements ...embedded.Element) func(...any) {
	names := []string{step}
	for _, element := range elements {
		switch element := element.(type) {
		case embedded.Event:
			names = append(names, element.Name())
		case embedded.NamedElement:
			names = append(names, element.QualifiedName())
		default:
			names = append(names, element.Id())
		}
	}
	recorder.mutex.Lock()
	recorder.steps = append(recorder.steps, strings.Join(names, " "))
	recorder.mutex.Unlock()
	return func(...any) {}
}

// Steps returns the recorded lines whose step is one of maybeSteps, or every
// line when none are given.
func (recorder *Recorder) Steps(maybeSteps ...string) []string {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	var steps []string
	for _, line := range recorder.steps {
		step, _, _ := strings.Cut(line, " ")
		if len(maybeSteps) == 0 || slices.Contains(maybeSteps, step) {
			steps = append(steps, line)
		}
	}
	return steps
}

func (recorder *Recorder) Reset() {
	recorder.mutex.Lock()
	recorder.steps = nil
	recorder.mutex.Unlock()
}

// Record is a log record kept by LogCapture.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record.
type LogCapture struct {
	mutex   *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

func NewLogCapture() *LogCapture {
	return &LogCapture{mutex: &sync.Mutex{}, records: &[]Record{}}
}

// Logger returns a logger writing to the capture.
func (capture *LogCapture) Logger() *slog.Logger {
	return slog.New(capture)
}

func (capture *LogCapture) Enabled(context.Context, slog.Level) bool {
	return true
}

func (capture *LogCapture) Handle(ctx context.Context, record slog.Record) error {
	attrs := map[string]any{}
	for _, attr := range capture.attrs {
		attrs[attr.Key] = attr.Value.Any()
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.Any()
		return true
	})
	capture.mutex.Lock()
	*capture.records = append(*capture.records, Record{Level: record.Level, Message: record.Message, Attrs: attrs})
	capture.mutex.Unlock()
	return nil
}

func (capture *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogCapture{mutex: capture.mutex, records: capture.records, attrs: append(slices.Clone(capture.attrs), attrs...)}
}

func (capture *LogCapture) WithGroup(string) slog.Handler {
	return capture
}

// Records returns the records at level or above.
func (capture *LogCapture) Records(level slog.Level) []Record {
	capture.mutex.Lock()
	defer capture.mutex.Unlock()
	var records []Record
	for _, record := range *capture.records {
		if record.Level >= level {
			records = append(records, record)
		}
	}
	return records
}

// Errors returns the messages logged at error level.
func (capture *LogCapture) Errors() []string {
	var messages []string
	for _, record := range capture.Records(slog.LevelError) {
		messages = append(messages, record.Message)
	}
	return messages
}
