// Package testutil provides testing utilities for the DropsTab fetchers.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// MockResponse defines the behaviour for one mock API response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// Request is a request observed by the mock server.
type Request struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// MockAPI is a configurable mock DropsTab API server.
//
// Responses are registered per path (without the /api/v1 prefix). A path
// may carry a queue of responses that are served in order; the last one
// repeats once the queue is drained.
type MockAPI struct {
	server *httptest.Server
	mu     sync.Mutex
	queues map[string][]MockResponse
	pages  map[string][]string

	requests []Request
}

// BasePath is the path prefix the mock serves under, matching the real API.
const BasePath = "/api/v1"

// NewMockAPI creates and starts a mock API server.
func NewMockAPI() *MockAPI {
	m := &MockAPI{
		queues: make(map[string][]MockResponse),
		pages:  make(map[string][]string),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the base URL to configure clients with.
func (m *MockAPI) URL() string {
	return m.server.URL + BasePath
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetResponse serves resp for every request to path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetResponses(path, resp)
}

// SetResponses serves resps in order for requests to path.
func (m *MockAPI) SetResponses(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[normalize(path)] = resps
}

// SetPages serves a paginated endpoint: the request's page query parameter
// selects a JSON array from contents and the usual envelope is built around
// it with totalPages = len(contents).
func (m *MockAPI) SetPages(path string, contents ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[normalize(path)] = contents
}

// Requests returns a copy of all requests received so far.
func (m *MockAPI) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// RequestCount returns the number of requests received so far.
func (m *MockAPI) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockAPI) handle(w http.ResponseWriter, r *http.Request) {
	path := normalize(strings.TrimPrefix(r.URL.Path, BasePath))

	m.mu.Lock()
	m.requests = append(m.requests, Request{
		Path:   path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})

	if contents, ok := m.pages[path]; ok {
		m.mu.Unlock()
		servePage(w, r, contents)
		return
	}

	queue, ok := m.queues[path]
	var resp MockResponse
	if ok && len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			m.queues[path] = queue[1:]
		}
	}
	m.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"status":"error","message":"no mock for %s"}`, path)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func servePage(w http.ResponseWriter, r *http.Request, contents []string) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	content := "[]"
	if page < len(contents) {
		content = contents[page]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","data":{"content":%s,"totalPages":%d,"currentPage":%d}}`,
		content, len(contents), page)
}

func normalize(path string) string {
	return strings.Trim(path, "/")
}

// NewOKResponse creates a 200 response with a JSON body.
func NewOKResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 response. An empty retryAfter omits
// the Retry-After header.
func NewRateLimitResponse(retryAfter string) MockResponse {
	resp := MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status":"error","message":"Too many requests"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
	if retryAfter != "" {
		resp.Headers["Retry-After"] = retryAfter
	}
	return resp
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status":"error","message":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
