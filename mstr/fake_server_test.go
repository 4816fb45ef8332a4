package mstr

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSession = "MTIzNDU2Nzg5MA=="

const loginXML = `<?xml version="1.0" encoding="utf-8"?>
<taskResponse><loginInfo><sessionState>` + testSession + `</sessionState><name>reporter</name></loginInfo></taskResponse>`

// fakeTaskServer answers TaskProc requests by taskId and records every query
type fakeTaskServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]string
	status    map[string]int
	requests  []url.Values
}

func newFakeTaskServer(t *testing.T) *fakeTaskServer {
	t.Helper()

	f := &fakeTaskServer{
		responses: map[string]string{
			"login":  loginXML,
			"logout": `<taskResponse/>`,
		},
		status: map[string]int{},
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		f.mu.Lock()
		f.requests = append(f.requests, query)
		task := query.Get("taskId")
		body, ok := f.responses[task]
		status := f.status[task]
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprint(w, body)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "unknown task %q", task)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(f.Close)

	return f
}

func (f *fakeTaskServer) respond(task, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[task] = body
}

func (f *fakeTaskServer) fail(task string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[task] = status
	f.responses[task] = body
}

// lastRequest returns the most recent query for a task
func (f *fakeTaskServer) lastRequest(task string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Get("taskId") == task {
			return f.requests[i]
		}
	}
	return nil
}

func (f *fakeTaskServer) count(task string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.requests {
		if q.Get("taskId") == task {
			n++
		}
	}
	return n
}

func (f *fakeTaskServer) taskURL() string {
	return f.URL + "/MicroStrategy/asp/TaskProc.aspx"
}

var testCreds = Credentials{
	ProjectSource: "iserver",
	ProjectName:   "Sales",
	Username:      "reporter",
	Password:      "s3cret",
}

// connectedClient returns a client logged in to the fake server
func connectedClient(t *testing.T, f *fakeTaskServer) *Client {
	t.Helper()
	client, err := Connect(t.Context(), f.taskURL(), testCreds, zerolog.Nop())
	require.NoError(t, err)
	return client
}
