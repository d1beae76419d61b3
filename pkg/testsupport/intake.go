package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Response is one scripted reply of an IntakeServer.
type Response struct {
	Status int
	// Body is written verbatim. Empty means `{"success":true}` for 2xx and
	// `{"success":false}` otherwise.
	Body string
}

// Request is what an IntakeServer received.
type Request struct {
	Header http.Header
	Body   map[string]any
	Raw    []byte
}

// IntakeServer is a scripted stand-in for the intake endpoint. Replies are
// consumed in order; once exhausted the last one repeats.
type IntakeServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses []Response
	requests  []Request
}

// NewIntakeServer starts a server and registers Close on t.
func NewIntakeServer(t *testing.T, responses ...Response) *IntakeServer {
	t.Helper()

	if len(responses) == 0 {
		responses = []Response{{Status: http.StatusOK}}
	}
	s := &IntakeServer{responses: responses}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// FailThenSucceed scripts `failures` 500 replies followed by success.
func FailThenSucceed(failures int) []Response {
	out := make([]Response, 0, failures+1)
	for i := 0; i < failures; i++ {
		out = append(out, Response{Status: http.StatusInternalServerError})
	}
	return append(out, Response{Status: http.StatusOK})
}

// Requests returns a copy of every request received.
func (s *IntakeServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Calls counts requests received.
func (s *IntakeServer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *IntakeServer) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	idx := len(s.requests)
	s.requests = append(s.requests, Request{Header: r.Header.Clone(), Body: body, Raw: raw})
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	resp := s.responses[idx]
	s.mu.Unlock()

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	payload := resp.Body
	if payload == "" {
		if status >= 200 && status < 300 {
			payload = `{"success":true}`
		} else {
			payload = `{"success":false}`
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, payload)
}
