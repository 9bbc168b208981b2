package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

type graphCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type graphReply struct {
	Status int
	Body   any
}

type fakeGraph struct {
	mu     sync.Mutex
	calls  []graphCall
	handle func(call graphCall) graphReply
	server *httptest.Server
}

func newFakeGraph(t *testing.T, handle func(call graphCall) graphReply) *fakeGraph {
	t.Helper()
	g := &fakeGraph{handle: handle}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := graphCall{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/"),
			Query:  r.URL.Query(),
		}
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&call.Body)
		}

		g.mu.Lock()
		g.calls = append(g.calls, call)
		reply := g.handle(call)
		g.mu.Unlock()

		if reply.Status == 0 {
			reply.Status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.Status)
		_ = json.NewEncoder(w).Encode(reply.Body)
	}))
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGraph) URL() string {
	return g.server.URL
}

func (g *fakeGraph) Calls() []graphCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]graphCall(nil), g.calls...)
}

func (g *fakeGraph) CallsTo(method, path string) []graphCall {
	var out []graphCall
	for _, c := range g.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func testTransport() *GraphTransport {
	return NewGraphTransport(5*time.Second, 0)
}

func graphErrorBody(message string, code int) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"message":    message,
			"type":       "OAuthException",
			"code":       code,
			"fbtrace_id": "AbC123",
		},
	}
}
