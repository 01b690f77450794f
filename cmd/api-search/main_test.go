package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jawdriai/api-search/internal/mockapi"
	"github.com/jawdriai/api-search/pkg/client"
)

// newTestClient wires a client against an in-process mock external API.
func newTestClient(t *testing.T, token string) *client.Client {
	t.Helper()

	upstream := httptest.NewServer(mockapi.New(mockapi.DefaultToken))
	t.Cleanup(upstream.Close)

	c, err := client.New(client.Config{
		BaseURL: upstream.URL,
		Token:   token,
		Timeout: 2 * time.Second,
		Retry: client.RetryConfig{
			MaxAttempts:       2,
			InitialBackoff:    10 * time.Millisecond,
			MaxBackoff:        50 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
		PageSize: 25,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestListItemsHandler_FirstPage(t *testing.T) {
	handler := listItemsHandler(newTestClient(t, mockapi.DefaultToken))

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var items []client.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("Failed to decode items: %v", err)
	}
	if len(items) != 25 {
		t.Errorf("Expected 25 items (first page), got %d", len(items))
	}
}

func TestListItemsHandler_All(t *testing.T) {
	handler := listItemsHandler(newTestClient(t, mockapi.DefaultToken))

	req := httptest.NewRequest(http.MethodGet, "/items?all=true&page_size=40", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var items []client.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("Failed to decode items: %v", err)
	}
	if len(items) != 100 {
		t.Errorf("Expected all 100 items, got %d", len(items))
	}
}

func TestListItemsHandler_BadParams(t *testing.T) {
	handler := listItemsHandler(newTestClient(t, mockapi.DefaultToken))

	tests := []struct {
		name   string
		target string
	}{
		{name: "bad all", target: "/items?all=maybe"},
		{name: "bad page_size", target: "/items?page_size=lots"},
		{name: "zero page_size", target: "/items?page_size=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestListItemsHandler_UpstreamAuthFailure(t *testing.T) {
	// The service is configured with a bad upstream credential; that is our
	// misconfiguration, so the caller sees 502, not 401.
	handler := listItemsHandler(newTestClient(t, "wrong-token"))

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", w.Code)
	}
}

func TestCreateItemHandler(t *testing.T) {
	handler := createItemHandler(newTestClient(t, mockapi.DefaultToken))

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name": "Interview Item"}`))
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var item client.Item
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("Failed to decode item: %v", err)
	}
	if item.Name != "Interview Item" {
		t.Errorf("item.Name = %q, want Interview Item", item.Name)
	}
	if item.ID != 101 {
		t.Errorf("item.ID = %d, want the server-assigned 101", item.ID)
	}
}

func TestCreateItemHandler_BadBody(t *testing.T) {
	handler := createItemHandler(newTestClient(t, mockapi.DefaultToken))

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `name=x`},
		{name: "empty name", body: `{"name": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Creating a client registers all extapi metrics.
	_ = newTestClient(t, mockapi.DefaultToken)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	promhttp.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "# HELP") || !strings.Contains(body, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
}
