// Package mockapi implements a stand-in for the external items API: bearer
// token auth, cursor-paginated listing, and item creation. It is served as a
// fixture binary (cmd/mock-external) and mounted directly in tests.
package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultToken is the bearer token the mock accepts unless configured
// otherwise.
const DefaultToken = "dev-token-123"

// seedSize is the number of items the store starts with.
const seedSize = 100

// Item mirrors the external API's item record.
type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type listResponse struct {
	Items      []Item  `json:"items"`
	NextCursor *string `json:"next_cursor"`
	Count      int     `json:"count"`
}

type createRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server is the mock external API. It implements http.Handler.
type Server struct {
	mu     sync.Mutex
	items  []Item
	token  string
	router chi.Router
	logger zerolog.Logger
}

// New creates a mock server accepting the given bearer token and seeded
// with items "Item 1" .. "Item 100".
func New(token string) *Server {
	if token == "" {
		token = DefaultToken
	}

	s := &Server{
		token:  token,
		logger: log.With().Str("component", "mock-external").Logger(),
	}

	for i := 1; i <= seedSize; i++ {
		s.items = append(s.items, Item{ID: i, Name: "Item " + strconv.Itoa(i)})
	}

	r := chi.NewRouter()
	r.Get("/items", s.listItems)
	r.Post("/items", s.createItem)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Len returns the current number of stored items.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// checkAuth validates the Authorization header. A missing or malformed
// header is 401, a wrong token is 403, matching the real API.
func (s *Server) checkAuth(w http.ResponseWriter, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Missing bearer token"})
		return false
	}
	if strings.TrimPrefix(auth, "Bearer ") != s.token {
		writeJSON(w, http.StatusForbidden, errorResponse{Detail: "Invalid token"})
		return false
	}
	return true
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}

	pageSize := 25
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Invalid page_size"})
			return
		}
		pageSize = n
	}

	// The cursor is the store index to resume from.
	start := 0
	if v := r.URL.Query().Get("cursor"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Invalid cursor"})
			return
		}
		start = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if start > len(s.items) {
		start = len(s.items)
	}
	end := start + pageSize
	if end > len(s.items) {
		end = len(s.items)
	}

	page := make([]Item, end-start)
	copy(page, s.items[start:end])

	resp := listResponse{
		Items: page,
		Count: len(page),
	}
	if end < len(s.items) {
		next := strconv.Itoa(end)
		resp.NextCursor = &next
	}

	s.logger.Debug().
		Int("start", start).
		Int("count", len(page)).
		Msg("Listing items")

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Invalid item payload"})
		return
	}

	s.mu.Lock()
	item := Item{ID: len(s.items) + 1, Name: req.Name}
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.logger.Debug().
		Int("id", item.ID).
		Str("name", item.Name).
		Msg("Item created")

	writeJSON(w, http.StatusCreated, item)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
