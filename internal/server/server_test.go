package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/rbx/internal/library"
	"github.com/desertthunder/rbx/internal/shared"
	"github.com/desertthunder/rbx/internal/source"
	th "github.com/desertthunder/rbx/internal/testing"
)

func newTestLibrary(t *testing.T, src source.Source) *library.Library {
	t.Helper()
	lib, err := library.Open(context.Background(), src, library.Options{})
	if err != nil {
		t.Fatalf("failed to open library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func newTestServer(t *testing.T, lib Library, cfg shared.ServerConfig) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(lib, cfg, shared.NewLogger(io.Discard)))
	t.Cleanup(srv.Close)
	return srv
}

func TestBasicRouter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("applies middleware in the order added", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/ping", ok)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second, got %v", order)
		}
	})

	t.Run("rejects the wrong method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/ping", ok)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("empty method matches any", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("", "/any", ok)

		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(method, "/any", nil))
			if rec.Code != http.StatusNoContent {
				t.Errorf("%s: expected 204, got %d", method, rec.Code)
			}
		}
	})
}

func TestMiddleware(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("RequestID propagates the client id", func(t *testing.T) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen != "abc-123" {
			t.Errorf("expected abc-123 in context, got %q", seen)
		}
		if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected abc-123 in response, got %q", got)
		}
	})

	t.Run("RequestID assigns an id when missing", func(t *testing.T) {
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a generated request id")
		}
	})

	t.Run("Recover writes a 500 envelope", func(t *testing.T) {
		h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		var env envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if env.Error != "internal server error" {
			t.Errorf("unexpected error %q", env.Error)
		}
	})

	t.Run("Logging records the status", func(t *testing.T) {
		var buf bytes.Buffer
		h := Logging(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		if out := buf.String(); !strings.Contains(out, "418") || !strings.Contains(out, "/brew") {
			t.Errorf("expected status and path in log, got %q", out)
		}
	})

	t.Run("RateLimit rejects past the burst", func(t *testing.T) {
		h := RateLimit(NewLimiter(1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

		if first.Code != http.StatusOK {
			t.Errorf("expected first request to pass, got %d", first.Code)
		}
		if second.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", second.Code)
		}
		if second.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	})

	t.Run("non-positive rate disables limiting", func(t *testing.T) {
		h := RateLimit(NewLimiter(0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		for i := range 20 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
			}
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("shuts down when the context is cancelled", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}

		lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
		handler := New(lib, shared.ServerConfig{}, shared.NewLogger(io.Discard))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- serve(ctx, ln, handler, shared.NewLogger(io.Discard)) }()

		url := fmt.Sprintf("http://%s/status", ln.Addr())
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(shutdownTimeout + time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("Serve fails on a bad address", func(t *testing.T) {
		err := Serve(context.Background(), "256.0.0.1:-1", http.NotFoundHandler(), shared.NewLogger(io.Discard))
		if err == nil || errors.Is(err, context.Canceled) {
			t.Errorf("expected listen error, got %v", err)
		}
	})
}
