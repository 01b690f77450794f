package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func doRequest(t *testing.T, s *Server, method, target, token string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode list response: %v", err)
	}
	return resp
}

func TestAuth(t *testing.T) {
	s := New(DefaultToken)

	t.Run("missing_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		w := httptest.NewRecorder()
		s.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("malformed_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		s.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong_token", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/items", "wrong-token", "")
		if w.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", w.Code)
		}
	})

	t.Run("valid_token", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/items", DefaultToken, "")
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})
}

func TestListItems_DefaultPage(t *testing.T) {
	s := New(DefaultToken)

	w := doRequest(t, s, http.MethodGet, "/items", DefaultToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	resp := decodeList(t, w)
	if len(resp.Items) != 25 {
		t.Errorf("Expected 25 items, got %d", len(resp.Items))
	}
	if resp.Items[0].ID != 1 || resp.Items[0].Name != "Item 1" {
		t.Errorf("First item = %+v, want Item 1", resp.Items[0])
	}
	if resp.NextCursor == nil || *resp.NextCursor != "25" {
		t.Errorf("NextCursor = %v, want \"25\"", resp.NextCursor)
	}
}

func TestListItems_CursorChainTerminates(t *testing.T) {
	s := New(DefaultToken)

	total := 0
	cursor := ""
	pages := 0
	for {
		target := "/items?page_size=40"
		if cursor != "" {
			target += "&cursor=" + cursor
		}

		w := doRequest(t, s, http.MethodGet, target, DefaultToken, "")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		resp := decodeList(t, w)
		total += len(resp.Items)
		pages++

		if resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor

		if pages > 10 {
			t.Fatal("Pagination did not terminate")
		}
	}

	if total != 100 {
		t.Errorf("Expected 100 items across pages, got %d", total)
	}
	if pages != 3 {
		t.Errorf("Expected 3 pages of 40, got %d", pages)
	}
}

func TestListItems_InvalidParams(t *testing.T) {
	s := New(DefaultToken)

	tests := []struct {
		name   string
		target string
	}{
		{name: "bad cursor", target: "/items?cursor=abc"},
		{name: "negative cursor", target: "/items?cursor=-1"},
		{name: "bad page_size", target: "/items?page_size=huge"},
		{name: "zero page_size", target: "/items?page_size=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodGet, tt.target, DefaultToken, "")
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("Expected 422, got %d", w.Code)
			}
		})
	}
}

func TestListItems_CursorPastEnd(t *testing.T) {
	s := New(DefaultToken)

	w := doRequest(t, s, http.MethodGet, "/items?cursor=500", DefaultToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	resp := decodeList(t, w)
	if len(resp.Items) != 0 {
		t.Errorf("Expected empty page, got %d items", len(resp.Items))
	}
	if resp.NextCursor != nil {
		t.Errorf("Expected null next_cursor, got %q", *resp.NextCursor)
	}
}

func TestCreateItem(t *testing.T) {
	s := New(DefaultToken)

	w := doRequest(t, s, http.MethodPost, "/items", DefaultToken, `{"name": "Fresh Item"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	var item Item
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("Failed to decode item: %v", err)
	}
	if item.ID != 101 {
		t.Errorf("item.ID = %d, want 101 (seed size + 1)", item.ID)
	}
	if item.Name != "Fresh Item" {
		t.Errorf("item.Name = %q, want Fresh Item", item.Name)
	}
	if s.Len() != 101 {
		t.Errorf("Store size = %d, want 101", s.Len())
	}
}

func TestCreateItem_InvalidPayload(t *testing.T) {
	s := New(DefaultToken)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty name", body: `{"name": ""}`},
		{name: "missing name", body: `{}`},
		{name: "not json", body: `name=x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/items", DefaultToken, tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("Expected 422, got %d", w.Code)
			}
		})
	}
}
