// Package lettatest provides an in-memory stand-in for the Letta API.
package lettatest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/lettatool/internal/letta"
)

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

// Server serves agents and tools from memory. Tools are addressable by
// name or by ID, like the real API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	agents   map[string]*letta.Agent
	tools    map[string]*letta.Tool
	failures map[string]failure
	requests []Request
	nextID   int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		agents:   make(map[string]*letta.Agent),
		tools:    make(map[string]*letta.Tool),
		failures: make(map[string]failure),
	}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/v1/agents/{agentID}", s.getAgent)
	r.Patch("/v1/agents/{agentID}", s.patchAgent)
	r.Get("/v1/tools/{tool}", s.getTool)
	r.Post("/v1/tools", s.createTool)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddAgent registers an agent. Tool references are kept as given.
func (s *Server) AddAgent(a *letta.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
}

// AddTool registers a tool under both its name and its ID.
func (s *Server) AddTool(t *letta.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.Name] = t
	if t.ID != "" {
		s.tools[t.ID] = t
	}
}

// Fail makes every request to "METHOD /path" answer with status and body.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Agent returns the current state of an agent.
func (s *Server) Agent(id string) *letta.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agents[id]
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsFor filters Requests by method and path.
func (s *Server) RequestsFor(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		f, failing := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if r.Header.Get("Authorization") == "" {
			writeError(w, http.StatusUnauthorized, `{"detail":"missing token"}`)
			return
		}
		if failing {
			writeError(w, f.status, f.body)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[chi.URLParam(r, "agentID")]
	if !ok {
		writeError(w, http.StatusNotFound, `{"detail":"agent not found"}`)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) patchAgent(w http.ResponseWriter, r *http.Request) {
	var req letta.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf(`{"detail":%q}`, err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[chi.URLParam(r, "agentID")]
	if !ok {
		writeError(w, http.StatusNotFound, `{"detail":"agent not found"}`)
		return
	}
	refs := make([]letta.ToolRef, 0, len(req.ToolIDs))
	for _, id := range req.ToolIDs {
		ref := letta.ToolRef{ID: id}
		if t, ok := s.tools[id]; ok {
			ref.Name = t.Name
			ref.ToolType = t.ToolType
		}
		refs = append(refs, ref)
	}
	a.Tools = refs
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getTool(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tools[chi.URLParam(r, "tool")]
	if !ok {
		writeError(w, http.StatusNotFound, `{"detail":"tool not found"}`)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) createTool(w http.ResponseWriter, r *http.Request) {
	var req letta.CreateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf(`{"detail":%q}`, err.Error()))
		return
	}
	var schema struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(req.JSONSchema, &schema)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &letta.Tool{
		ID:         fmt.Sprintf("tool-%d", s.nextID),
		Name:       schema.Name,
		ToolType:   "custom",
		SourceType: req.SourceType,
		SourceCode: req.SourceCode,
		JSONSchema: req.JSONSchema,
		Tags:       req.Tags,
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	s.tools[t.ID] = t
	if t.Name != "" {
		s.tools[t.Name] = t
	}
	writeJSON(w, http.StatusCreated, t)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
