// Package nomadtest serves a small in-memory subset of the Nomad HTTP API:
// job listing, job specs, job allocations and plain task logs.
package nomadtest

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/nomad/api"
)

// LogRequest records one call to the logs endpoint.
type LogRequest struct {
	AllocID string
	Task    string
	Type    string
	Plain   bool
}

// Server is a fake Nomad API. The zero value is not usable; call New.
type Server struct {
	mu          sync.Mutex
	jobs        []*api.JobListStub
	allocs      map[string][]*api.AllocationListStub
	specs       map[string]*api.Job
	logs        map[string]string
	logFailures map[string]int
	jobsFailure int
	requests    []LogRequest
}

// New returns an empty fake cluster.
func New() *Server {
	return &Server{
		allocs:      make(map[string][]*api.AllocationListStub),
		specs:       make(map[string]*api.Job),
		logs:        make(map[string]string),
		logFailures: make(map[string]int),
	}
}

// AddJob registers a job and its allocations. Order of calls is the order
// the job list is served in.
func (s *Server) AddJob(job *api.JobListStub, allocs ...*api.AllocationListStub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	s.allocs[job.ID] = allocs
}

// SetSpec registers the full job specification served by GET /v1/job/:id.
func (s *Server) SetSpec(job *api.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs[*job.ID] = job
}

// SetLog stores the log text served for one (allocation, task, type).
func (s *Server) SetLog(allocID, task, logType, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[logKey(allocID, task, logType)] = text
}

// FailLogs makes every log request for allocID answer with status.
func (s *Server) FailLogs(allocID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logFailures[allocID] = status
}

// FailJobs makes the job listing answer with status.
func (s *Server) FailJobs(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobsFailure = status
}

// LogRequests returns the log requests received so far, in order.
func (s *Server) LogRequests() []LogRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Handler returns the HTTP handler serving the fake API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(queryMeta)
	r.Get("/v1/jobs", s.handleJobs)
	r.Get("/v1/job/{jobID}", s.handleJob)
	r.Get("/v1/job/{jobID}/allocations", s.handleAllocations)
	r.Get("/v1/client/fs/logs/{allocID}", s.handleLogs)
	return r
}

// queryMeta sets the blocking-query headers the Nomad client parses on
// every response.
func queryMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Nomad-Index", "1")
		w.Header().Set("X-Nomad-LastContact", "0")
		w.Header().Set("X-Nomad-KnownLeader", "true")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jobsFailure != 0 {
		http.Error(w, "job listing unavailable", s.jobsFailure)
		return
	}

	prefix := r.URL.Query().Get("prefix")
	jobs := make([]*api.JobListStub, 0, len(s.jobs))
	for _, job := range s.jobs {
		if strings.HasPrefix(job.ID, prefix) {
			jobs = append(jobs, job)
		}
	}
	writeJSON(w, jobs)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.specs[chi.URLParam(r, "jobID")]
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, job)
}

func (s *Server) handleAllocations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allocs := s.allocs[chi.URLParam(r, "jobID")]
	if allocs == nil {
		allocs = []*api.AllocationListStub{}
	}
	writeJSON(w, allocs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	req := LogRequest{
		AllocID: chi.URLParam(r, "allocID"),
		Task:    q.Get("task"),
		Type:    q.Get("type"),
		Plain:   q.Get("plain") == "true",
	}
	s.requests = append(s.requests, req)

	if status, ok := s.logFailures[req.AllocID]; ok {
		http.Error(w, "log stream unavailable", status)
		return
	}
	text, ok := s.logs[logKey(req.AllocID, req.Task, req.Type)]
	if !ok {
		http.Error(w, "unknown task name", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, text)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func logKey(allocID, task, logType string) string {
	return allocID + "/" + task + "/" + logType
}
