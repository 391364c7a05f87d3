// Package server exposes the fund cache over HTTP: autocomplete search,
// paginated fund listing, fund and fund-house lookups, rebuild triggering,
// health and metrics.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amfikit/go-amfi-nav-cache/cache"
	"github.com/amfikit/go-amfi-nav-cache/internal"
)

// PageCountLimit is the maximum accepted page size for fund listings
const PageCountLimit = 1000

// defaultPageCount is the page size used when the request does not set one
const defaultPageCount = 10

// Searcher is the slice of the search client the server consumes
type Searcher interface {
	SearchByQueryType(ctx context.Context, queryType, query string) ([]cache.SearchResult, error)
}

// Server wires the cache, search and rebuild components to HTTP handlers
type Server struct {
	cache     cache.Cache
	search    Searcher
	rebuilder *Rebuild
	logger    *slog.Logger
	metrics   *metrics
}

// Rebuild couples a rebuild orchestrator with its snapshot source so the
// trigger endpoint can run it.
type Rebuild struct {
	Orchestrator *cache.Rebuilder
	Source       cache.SnapshotSource
}

// New creates a new Server. rebuild may be nil, in which case the rebuild
// endpoints respond with 404.
func New(c cache.Cache, search Searcher, rebuild *Rebuild, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cache:     c,
		search:    search,
		rebuilder: rebuild,
		logger:    logger,
		metrics:   newMetrics(),
	}
}

// Handler returns the fully routed HTTP handler with access logging
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/search/{q_type}", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/fund", s.handleListFunds).Methods(http.MethodGet)
	api.HandleFunc("/fund", s.handleGetFund).Methods(http.MethodPost)
	api.HandleFunc("/fund_house", s.handleGetFundHouse).Methods(http.MethodPost)

	if s.rebuilder != nil {
		api.HandleFunc("/rebuild", s.handleRebuild).Methods(http.MethodPost)
		api.HandleFunc("/rebuild", s.handleRebuildStatus).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return handlers.CombinedLoggingHandler(os.Stdout, s.metrics.instrument(r))
}

// searchResponse mirrors the original API: plain namespaces return strings,
// composite namespaces return 2-element arrays.
type searchResponse struct {
	Q       string        `json:"q"`
	Results []interface{} `json:"results"`
}

// handleSearch serves GET /api/v1/search/{q_type}?q=...
// Only the fund and fund_house namespaces are exposed over HTTP; the
// remaining two exist in the index but have no route yet.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	queryType := mux.Vars(r)["q_type"]

	if queryType != "fund" && queryType != "fund_house" {
		s.writeError(w, internal.NewInvalidQueryTypeError(queryType))
		return
	}

	query := r.URL.Query().Get("q")

	results, err := s.search.SearchByQueryType(r.Context(), queryType, query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := searchResponse{Q: query, Results: make([]interface{}, 0, len(results))}
	for _, result := range results {
		if result.Parts != nil {
			resp.Results = append(resp.Results, result.Parts)
		} else {
			resp.Results = append(resp.Results, result.Key)
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

type listFundsResponse struct {
	Page  int      `json:"pg"`
	Items []string `json:"items"`
	Last  int      `json:"last"`
}

// handleListFunds serves GET /api/v1/fund?pg=N&count=M with M capped at
// PageCountLimit. Identifiers come back in ascending lexicographic order;
// last is floor(total/count).
func (s *Server) handleListFunds(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "pg", 0)
	if err != nil || page < 0 {
		s.writeError(w, internal.NewValidationError("pg must be a non-negative integer", err))
		return
	}

	count, err := queryInt(r, "count", defaultPageCount)
	if err != nil || count <= 0 {
		s.writeError(w, internal.NewValidationError("count must be a positive integer", err))
		return
	}
	if count > PageCountLimit {
		s.writeError(w, internal.NewValidationError("count exceeds the page size limit of 1000", nil))
		return
	}

	names, err := s.cache.ListAllFundKeys(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	lastPage := len(names) / count

	start := page * count
	if start > len(names) {
		start = len(names)
	}
	end := start + count
	if end > len(names) {
		end = len(names)
	}

	s.writeJSON(w, http.StatusOK, listFundsResponse{
		Page:  page,
		Items: names[start:end],
		Last:  lastPage,
	})
}

type fetchRequest struct {
	Key string `json:"key"`
}

// handleGetFund serves POST /api/v1/fund with body {"key": "<scheme name>"}
func (s *Server) handleGetFund(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, internal.NewValidationError("invalid request body", err))
		return
	}

	record, err := s.cache.GetFund(r.Context(), req.Key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

// handleGetFundHouse serves POST /api/v1/fund_house with body
// {"key": "<fund house name>"} and returns the house's fund names.
func (s *Server) handleGetFundHouse(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, internal.NewValidationError("invalid request body", err))
		return
	}

	funds, err := s.cache.GetFundHouseFunds(r.Context(), req.Key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, funds)
}

// handleRebuild serves POST /api/v1/rebuild. The rebuild runs in the
// background; a second trigger while one is running gets 409.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if s.rebuilder.Orchestrator.Running() {
		s.writeError(w, internal.NewRebuildInProgressError())
		return
	}

	go func() {
		started := time.Now()
		if _, err := s.rebuilder.Orchestrator.Rebuild(context.Background(), s.rebuilder.Source); err != nil {
			s.logger.Error("background rebuild failed", "error", err)
		}
		s.metrics.rebuildDuration.Observe(time.Since(started).Seconds())
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebuild started"})
}

// handleRebuildStatus serves GET /api/v1/rebuild
func (s *Server) handleRebuildStatus(w http.ResponseWriter, r *http.Request) {
	status := s.rebuilder.Orchestrator.Status()
	s.writeJSON(w, http.StatusOK, status)
}

// handleHealth serves GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Health(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeError maps the typed error taxonomy to HTTP status codes: client
// errors to 400, rebuild contention to 409, store connectivity to 502,
// everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case internal.IsFundNotFoundError(err),
		internal.IsFundHouseNotFoundError(err),
		internal.IsInvalidQueryTypeError(err),
		internal.IsMalformedKeyError(err),
		internal.IsValidationError(err):
		status = http.StatusBadRequest
	case internal.IsRebuildInProgressError(err):
		status = http.StatusConflict
	case internal.IsConnectionError(err):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	s.writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
