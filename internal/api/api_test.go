package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spamprx/ThreadShell/internal/job"
	"github.com/spamprx/ThreadShell/internal/stats"
)

type fakeScheduler struct {
	jobs   []*job.Job
	active []*job.Job
	done   []*job.Job
}

func (f *fakeScheduler) Jobs() []*job.Job          { return f.jobs }
func (f *fakeScheduler) ActiveJobs() []*job.Job    { return f.active }
func (f *fakeScheduler) CompletedJobs() []*job.Job { return f.done }
func (f *fakeScheduler) QueueLength() int          { return len(f.jobs) }
func (f *fakeScheduler) SchedulingPolicy() string  { return "priority_first" }
func (f *fakeScheduler) CoreUtilization() []float64 {
	return []float64{10, 0, 55.5, 0}
}
func (f *fakeScheduler) SystemStats() stats.Snapshot {
	return stats.Compute(stats.Counters{TotalSubmitted: int64(len(f.jobs))}, f.done, f.active, time.Now(), "run-1")
}
func (f *fakeScheduler) Job(id job.ID) (*job.Job, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, http.ErrNoLocation
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(&fakeScheduler{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetJobNotFound(t *testing.T) {
	srv := New(&fakeScheduler{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/jobs/42", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetJobFound(t *testing.T) {
	j := job.New(7, "echo hi", job.Medium)
	srv := New(&fakeScheduler{jobs: []*job.Job{j}}, nil)
	req := httptest.NewRequest(http.MethodGet, "/jobs/7", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got job.Job
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("expected job id 7, got %d", got.ID)
	}
}

func TestCoresEndpoint(t *testing.T) {
	srv := New(&fakeScheduler{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/cores", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var cores []float64
	if err := json.NewDecoder(rec.Body).Decode(&cores); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cores) != 4 || cores[2] != 55.5 {
		t.Fatalf("unexpected cores payload: %v", cores)
	}
}
