package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnalyticsClient_PostEvent(t *testing.T) {
	var gotBody map[string]any
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/events" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewAnalyticsClient(srv.Client(), srv.URL+"/")
	err := client.PostEvent(context.Background(), "signup", map[string]any{"source": "hero_form"}, "req-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody["event"] != "signup" || gotBody["source"] != "hero_form" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	if gotRequestID != "req-123" {
		t.Fatalf("unexpected request id: %q", gotRequestID)
	}
}

func TestAnalyticsClient_PostEventErrors(t *testing.T) {
	t.Run("structured error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"unknown event"}`))
		}))
		defer srv.Close()

		client := NewAnalyticsClient(srv.Client(), srv.URL)
		err := client.PostEvent(context.Background(), "signup", nil, "")
		if err == nil || !strings.Contains(err.Error(), "unknown event") {
			t.Fatalf("expected sink error message, got %v", err)
		}
	})

	t.Run("unstructured error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}))
		defer srv.Close()

		client := NewAnalyticsClient(srv.Client(), srv.URL)
		err := client.PostEvent(context.Background(), "signup", nil, "")
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Fatalf("expected raw body in error, got %v", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := NewAnalyticsClient(srv.Client(), srv.URL)
		srv.Close()

		err := client.PostEvent(context.Background(), "signup", nil, "")
		if err == nil {
			t.Fatalf("expected transport error")
		}
	})
}
