package askme

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"askme/internal/logging"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0, logging.Nop())
}

func TestAskSendsQuestion(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotContentType string
	var gotBody ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "Paris"}`))
	})

	reply, err := c.Ask(context.Background(), "Capital of France?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if reply != "Paris" {
		t.Fatalf("reply = %q, want Paris", reply)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/chat" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q", gotContentType)
	}
	if gotBody.Question != "Capital of France?" {
		t.Fatalf("question = %q", gotBody.Question)
	}
}

func TestAskErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantDetail  string
	}{
		{"detail string", 500, "application/json", `{"detail": "server exploded"}`, "server exploded"},
		{"rate limited", 429, "application/json", `{"detail": "Rate limit exceeded. Try again later."}`, "Rate limit exceeded. Try again later."},
		{"detail missing", 500, "application/json", `{"error": "nope"}`, FallbackDetail},
		{"detail not a string", 422, "application/json", `{"detail": [{"msg": "field required"}]}`, FallbackDetail},
		{"detail null", 400, "application/json", `{"detail": null}`, FallbackDetail},
		{"empty body", 502, "", ``, FallbackDetail},
		{"html page", 502, "text/html", `<html><head><title>Bad Gateway</title></head><body><h1>502</h1></body></html>`, FallbackDetail},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.contentType != "" {
					w.Header().Set("Content-Type", tc.contentType)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.Ask(context.Background(), "hi")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v (%T), want *APIError", err, err)
			}
			if apiErr.StatusCode != tc.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tc.status)
			}
			if err.Error() != tc.wantDetail {
				t.Errorf("Error() = %q, want %q", err.Error(), tc.wantDetail)
			}
		})
	}
}

func TestAskHTMLBodyIsReducedForLogs(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html><head><title>Bad Gateway</title><style>h1{}</style></head><body><h1>upstream down</h1></body></html>`))
	})

	_, err := c.Ask(context.Background(), "hi")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Body != "Bad Gateway upstream down" {
		t.Fatalf("Body = %q", apiErr.Body)
	}
}

func TestAskMalformedSuccessBody(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`not json`, `{"answer": "x"}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := c.Ask(context.Background(), "hi")
		if err == nil || !strings.Contains(err.Error(), "failed to parse response") {
			t.Fatalf("body %q: error = %v", body, err)
		}
	}
}

func TestAskTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, 0, logging.Nop())
	_, err := c.Ask(context.Background(), "hi")
	if err == nil || !strings.HasPrefix(err.Error(), "request failed:") {
		t.Fatalf("error = %v", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatal("transport failure must not be an APIError")
	}
}

func TestAskHonorsCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Ask(ctx, "hi"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"message": "Welcome to the AskMe Bot API!"}`))
	})

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}
