package client

import (
	"net/http"
	"testing"
)

func TestBearerAuth_Apply(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com/items", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	auth := BearerAuth{Token: "test-token-42"}
	auth.Apply(req)

	if got := req.Header.Get("Authorization"); got != "Bearer test-token-42" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer test-token-42")
	}
}

func TestBearerAuth_OverwritesExistingHeader(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com/items", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer stale-token")

	BearerAuth{Token: "fresh-token"}.Apply(req)

	values := req.Header.Values("Authorization")
	if len(values) != 1 {
		t.Fatalf("Expected exactly one Authorization header, got %d", len(values))
	}
	if values[0] != "Bearer fresh-token" {
		t.Errorf("Authorization = %q, want %q", values[0], "Bearer fresh-token")
	}
}
