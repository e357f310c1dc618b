// Package eventlog implements the Event Log (spec §4.4): a durable,
// append-only record of every job lifecycle transition. The Global
// singleton logger from the original design is re-expressed as an
// injected EventSink interface (spec §9's re-architecture note), with a
// CSV file sink as the process-wide default and an in-memory sink for
// tests.
package eventlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/spamprx/ThreadShell/internal/job"
)

// EventType names the five lifecycle transitions the log records.
type EventType string

const (
	Submitted EventType = "SUBMITTED"
	Started   EventType = "STARTED"
	CompletedEvt EventType = "COMPLETED"
	FailedEvt    EventType = "FAILED"
	Killed       EventType = "KILLED"
)

// Event is one CSV row's worth of information about a job transition.
type Event struct {
	Timestamp time.Time
	JobID     job.ID
	JobName   string
	Command   string
	Priority  job.Priority
	Status    job.Status
	ThreadID  string
	CoreID    int
	Duration  time.Duration
	Type      EventType
}

// FromJob builds an Event snapshot from the current state of j.
func FromJob(j *job.Job, evt EventType) Event {
	return Event{
		Timestamp: time.Now(),
		JobID:     j.ID,
		JobName:   j.JobName,
		Command:   j.Command,
		Priority:  j.Priority,
		Status:    j.Status,
		ThreadID:  j.ThreadID,
		CoreID:    j.AssignedCoreID,
		Duration:  durationSince(j, evt),
		Type:      evt,
	}
}

// durationSince computes Duration(ms) per spec §4.4: 0 until STARTED, then
// now (or EndTime for terminal events) minus StartTime.
func durationSince(j *job.Job, evt EventType) time.Duration {
	if evt == Submitted || j.StartTime.IsZero() {
		return 0
	}
	end := time.Now()
	if !j.EndTime.IsZero() {
		end = j.EndTime
	}
	return end.Sub(j.StartTime)
}

// EventSink is the injected logging boundary. The process-wide default
// binding is CSVSink; tests substitute MemorySink.
type EventSink interface {
	Record(evt Event) error
}

// Header is the fixed CSV header defined in spec §4.4.
var Header = []string{
	"Timestamp", "JobID", "JobName", "Command", "Priority", "Status",
	"ThreadID", "CoreID", "Duration(ms)", "Event",
}

// CSVSink appends one CSV row per event to a file, flushing after every
// write so crash loss is bounded to the in-flight record (spec §4.4).
type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink opens (creating parent directories as needed) an
// append-only CSV file at path and writes the header if the file is new.
// Failure to create the directory or open the file is returned as an
// error; the caller (scheduler construction, or the CLI's main) is
// expected to treat this as a fatal startup error per spec §4.4/§7.
func NewCSVSink(path string) (*CSVSink, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("eventlog: create log directory %q: %w", dir, err)
		}
	}

	writeHeader := false
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open log file %q: %w", path, err)
	}

	sink := &CSVSink{file: f, writer: csv.NewWriter(f)}
	if writeHeader {
		if err := sink.writer.Write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("eventlog: write header: %w", err)
		}
		sink.writer.Flush()
	}
	return sink, nil
}

// Record appends one row for evt, flushing immediately.
func (s *CSVSink) Record(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		evt.Timestamp.Format("2006-01-02 15:04:05.000"),
		strconv.FormatInt(int64(evt.JobID), 10),
		nameOrDash(evt.JobName),
		evt.Command,
		strconv.Itoa(int(evt.Priority)),
		strconv.Itoa(int(evt.Status)),
		evt.ThreadID,
		strconv.Itoa(evt.CoreID),
		strconv.FormatInt(evt.Duration.Milliseconds(), 10),
		string(evt.Type),
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("eventlog: write record: %w", err)
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return s.file.Close()
}

func nameOrDash(name string) string {
	if name == "" {
		return "-"
	}
	return name
}

// MemorySink retains the most recent N events in a ring buffer. Used by
// tests that assert on ordering/contents without touching the filesystem;
// the monitoring API does not expose it.
type MemorySink struct {
	mu     sync.Mutex
	cap    int
	events []Event
}

// NewMemorySink creates a MemorySink retaining at most capacity events.
func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{cap: capacity}
}

// Record appends evt, evicting the oldest event if over capacity.
func (m *MemorySink) Record(evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	if m.cap > 0 && len(m.events) > m.cap {
		m.events = m.events[len(m.events)-m.cap:]
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
