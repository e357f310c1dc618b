package eventlog

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spamprx/ThreadShell/internal/job"
)

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "job_log.csv")

	sink, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}
	j := job.New(1, "echo hello", job.Medium)
	if err := sink.Record(FromJob(j, Submitted)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	sink.Close()

	// Reopen (simulating a new session appending to an existing file) and
	// confirm the header is not duplicated.
	sink2, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("reopen NewCSVSink: %v", err)
	}
	sink2.Record(FromJob(j, Started))
	sink2.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	headerCount := 0
	scanner := bufio.NewScanner(f)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		if strings.HasPrefix(scanner.Text(), "Timestamp,JobID") {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Fatalf("expected exactly 1 header line, got %d", headerCount)
	}
	if lineCount != 3 { // header + 2 records
		t.Fatalf("expected 3 lines total, got %d", lineCount)
	}
}

func TestCSVSinkQuotesCommandWithCommas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job_log.csv")

	sink, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}
	j := job.New(1, "echo a,b,c", job.Medium)
	sink.Record(FromJob(j, Submitted))
	sink.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"echo a,b,c"`) {
		t.Fatalf("expected quoted command in CSV output, got: %s", data)
	}
}

func TestMemorySinkEvictsOldest(t *testing.T) {
	m := NewMemorySink(2)
	j := job.New(1, "echo hi", job.Medium)
	m.Record(FromJob(j, Submitted))
	m.Record(FromJob(j, Started))
	m.Record(FromJob(j, CompletedEvt))

	events := m.Events()
	if len(events) != 2 {
		t.Fatalf("expected ring buffer capped at 2, got %d", len(events))
	}
	if events[0].Type != Started || events[1].Type != CompletedEvt {
		t.Fatalf("expected oldest event evicted, got %+v", events)
	}
}

func TestDurationZeroBeforeStart(t *testing.T) {
	j := job.New(1, "echo hi", job.Medium)
	evt := FromJob(j, Submitted)
	if evt.Duration != 0 {
		t.Fatalf("expected zero duration before STARTED, got %v", evt.Duration)
	}
}
