// Package api implements the read-only monitoring HTTP surface
// (SPEC_FULL.md §6). It repurposes the teacher's gorilla/mux router idiom
// from a job-submission/cluster-status surface into a strictly read-only
// view over a running Scheduler; nothing here mutates scheduler state.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/spamprx/ThreadShell/internal/job"
	"github.com/spamprx/ThreadShell/internal/stats"
)

// Scheduler is the subset of *scheduler.Scheduler the monitoring API reads
// from. Declared as an interface so this package does not import
// internal/scheduler and can be tested against a fake.
type Scheduler interface {
	Jobs() []*job.Job
	Job(id job.ID) (*job.Job, error)
	ActiveJobs() []*job.Job
	CompletedJobs() []*job.Job
	QueueLength() int
	SchedulingPolicy() string
	CoreUtilization() []float64
	SystemStats() stats.Snapshot
}

// Server wraps a gorilla/mux router bound to a Scheduler.
type Server struct {
	sched  Scheduler
	router *mux.Router
	log    *logrus.Logger
}

// New builds the monitoring router. Call Server.ListenAndServe (or use
// Server.Router() with your own http.Server) to actually serve it.
func New(sched Scheduler, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{sched: sched, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/jobs", s.handleListJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/active", s.handleActiveJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/completed", s.handleCompletedJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/cores", s.handleCores).Methods(http.MethodGet)
	r.Use(s.loggingMiddleware)
	s.router = r

	return s
}

// Router exposes the underlying mux.Router for embedding in an *http.Server.
func (s *Server) Router() *mux.Router { return s.router }

// ListenAndServe serves the monitoring API on addr until the process exits
// or the listener errors.
func (s *Server) ListenAndServe(addr string) error {
	s.log.WithField("addr", addr).Info("monitoring API listening")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("monitoring request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Jobs())
}

func (s *Server) handleActiveJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.ActiveJobs())
}

func (s *Server) handleCompletedJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.CompletedJobs())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	n, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	j, err := s.sched.Job(job.ID(n))
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":             s.sched.SystemStats(),
		"queue_length":      s.sched.QueueLength(),
		"scheduling_policy": s.sched.SchedulingPolicy(),
	})
}

func (s *Server) handleCores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.CoreUtilization())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
