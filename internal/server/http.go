package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"VaultLedger/internal/observability"
	"VaultLedger/internal/query"
)

const defaultHistoryLimit = 50

// HTTPServer serves the read-side JSON API plus health endpoints.
//
//	GET /v1/users/{user_id}/balances
//	GET /v1/users/{user_id}/balances/{asset}
//	GET /v1/users/{user_id}/history?limit=N&before=SEQ
//	GET /v1/vault/summary
//	GET /healthz, /readyz
type HTTPServer struct {
	httpServer *http.Server
	queries    *query.Service
	addr       string
}

func NewHTTPServer(addr string, queries *query.Service, hc *observability.HealthChecker) *HTTPServer {
	s := &HTTPServer{
		queries: queries,
		addr:    addr,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/users/", s.handleUsers)
	mux.HandleFunc("/v1/vault/summary", s.handleVaultSummary)
	if hc != nil {
		hc.Register(mux)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("INFO: HTTP server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// handleUsers routes /v1/users/{user_id}/balances[/{asset}] and
// /v1/users/{user_id}/history.
func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/"), "/")
	if len(parts) < 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	userID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	switch {
	case parts[1] == "balances" && len(parts) == 2:
		s.serveBalances(w, r, userID)
	case parts[1] == "balances" && len(parts) == 3:
		s.serveBalance(w, r, userID, parts[2])
	case parts[1] == "history" && len(parts) == 2:
		s.serveHistory(w, r, userID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) serveBalances(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	balances, err := s.queries.GetBalances(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, map[string]interface{}{"balances": balances})
}

func (s *HTTPServer) serveBalance(w http.ResponseWriter, r *http.Request, userID uuid.UUID, asset string) {
	balance, err := s.queries.GetBalance(r.Context(), userID, asset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, balance)
}

func (s *HTTPServer) serveHistory(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	var before *int64
	if raw := r.URL.Query().Get("before"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid before cursor")
			return
		}
		before = &n
	}

	entries, err := s.queries.GetHistory(r.Context(), userID, limit, before)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, map[string]interface{}{"history": entries})
}

func (s *HTTPServer) handleVaultSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summary, err := s.queries.GetVaultSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, summary)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
