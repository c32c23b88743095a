package resolve

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobdeck/internal/config"
	"github.com/amishk599/jobdeck/internal/ratelimit"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUpstream routes every outbound call, whatever its host, to one test
// server and counts requests per "METHOD path".
type fakeUpstream struct {
	srv *httptest.Server

	mu    sync.Mutex
	calls map[string]int
}

func newFakeUpstream(t *testing.T, handler http.HandlerFunc) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{calls: map[string]int{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeUpstream) deps() Deps {
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = f.srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
	limiters := ratelimit.NewRegistry(func(string) config.RateLimitConfig {
		return config.RateLimitConfig{MaxAttempts: 1}
	}, time.Millisecond, discardLogger())
	return Deps{
		HTTP:          client,
		VerifyTimeout: 2 * time.Second,
		Limiters:      limiters,
		Logger:        discardLogger(),
	}
}

func failingUpstream(t *testing.T) *fakeUpstream {
	return newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func writeImage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
}
