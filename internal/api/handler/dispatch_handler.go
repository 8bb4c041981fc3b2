package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/notifyhub/event-fanout/internal/api/middleware"
	"github.com/notifyhub/event-fanout/internal/domain"
	"github.com/notifyhub/event-fanout/internal/service"
)

// DispatchHandler handles the dispatch endpoints.
type DispatchHandler struct {
	svc    *service.DispatchService
	logger *zap.Logger
}

func NewDispatchHandler(svc *service.DispatchService, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/dispatches
//
// The call is synchronous: it returns only after every recipient has been
// contacted (or the first failure aborted the run). Response bodies are
// returned in recipient order.
//
// @Summary     Dispatch a templated request to every recipient
// @Tags        dispatches
// @Accept      json
// @Produce     json
// @Param       body  body      domain.DispatchRequest  true  "Dispatch payload"
// @Success     201   {object}  map[string]any
// @Failure     422   {object}  map[string]string
// @Failure     502   {object}  map[string]string
// @Router      /api/v1/dispatches [post]
func (h *DispatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	run, responses, err := h.svc.Dispatch(r.Context(), req)
	if err != nil {
		h.logger.Warn("dispatch failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"run":       run,
		"responses": responses,
	})
}

// GetByID handles GET /api/v1/dispatches/{id}
//
// @Summary  Get a dispatch run and its deliveries
// @Tags     dispatches
// @Produce  json
// @Param    id   path      string  true  "Run UUID"
// @Success  200  {object}  map[string]any
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/dispatches/{id} [get]
func (h *DispatchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, deliveries, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"run":        run,
		"deliveries": deliveries,
	})
}

// List handles GET /api/v1/dispatches
//
// @Summary  List dispatch runs with filtering and pagination
// @Tags     dispatches
// @Produce  json
// @Param    status  query     string  false  "Filter by status"
// @Param    from    query     string  false  "Started after (RFC3339)"
// @Param    to      query     string  false  "Started before (RFC3339)"
// @Param    page    query     int     false  "Page number (default 1)"
// @Param    limit   query     int     false  "Items per page (default 20, max 100)"
// @Success  200     {object}  map[string]any
// @Router   /api/v1/dispatches [get]
func (h *DispatchHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	runs, total, err := h.svc.ListRuns(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list dispatch runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  runs,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

func parseListFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	filter := domain.ListFilter{Page: 1, Limit: 20}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	if s := q.Get("status"); s != "" {
		st := domain.RunStatus(s)
		filter.Status = &st
	}
	if f := q.Get("from"); f != "" {
		if t, err := time.Parse(time.RFC3339, f); err == nil {
			filter.From = &t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &t
		}
	}
	return filter
}
