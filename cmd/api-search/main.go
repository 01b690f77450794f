// Command api-search is the thin HTTP endpoint layer in front of the
// resilient external-API client. It only routes, validates, and maps
// failures to response statuses; all non-trivial control flow lives in
// pkg/client.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jawdriai/api-search/internal/config"
	"github.com/jawdriai/api-search/pkg/client"
	"github.com/jawdriai/api-search/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	apiClient, err := client.New(client.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.RequestTimeout,
		Retry: client.RetryConfig{
			MaxAttempts:       cfg.MaxAttempts,
			InitialBackoff:    cfg.InitialBackoff,
			MaxBackoff:        cfg.MaxBackoff,
			BackoffMultiplier: 2.0,
		},
		PageSize: cfg.PageSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create external API client")
	}

	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/items", listItemsHandler(apiClient))
	r.Post("/items", createItemHandler(apiClient))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_url", cfg.BaseURL).
			Msg("Starting api-search server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listItemsHandler serves GET /items?all=<bool>&page_size=<int>.
func listItemsHandler(apiClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		followAll := false
		if v := r.URL.Query().Get("all"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid all parameter"})
				return
			}
			followAll = b
		}

		c := apiClient
		if v := r.URL.Query().Get("page_size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page_size parameter"})
				return
			}
			c = c.WithPageSize(n)
		}

		items, err := c.ListItems(r.Context(), followAll)
		if err != nil {
			writeClientError(w, err)
			return
		}
		if items == nil {
			items = []client.Item{}
		}

		writeJSON(w, http.StatusOK, items)
	}
}

type createItemPayload struct {
	Name string `json:"name"`
}

// createItemHandler serves POST /items.
func createItemHandler(apiClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createItemPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if payload.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}

		item, err := apiClient.CreateItem(r.Context(), payload.Name)
		if err != nil {
			writeClientError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, item)
	}
}

// writeClientError maps the client's failure taxonomy to response statuses.
// Upstream auth failures are our misconfiguration, not the caller's, so they
// map to 502 rather than passing 401 through.
func writeClientError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway

	switch {
	case errors.Is(err, client.ErrContextCancelled):
		status = http.StatusGatewayTimeout
	case errors.Is(err, client.ErrRetryExhausted):
		status = http.StatusBadGateway
	case errors.Is(err, client.ErrPaginationDivergence):
		status = http.StatusBadGateway
	default:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorClass == client.ErrorClassValidation {
			// Pass upstream validation statuses through to the caller.
			status = apiErr.StatusCode
			if status == 0 {
				status = http.StatusBadRequest
			}
		}
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
