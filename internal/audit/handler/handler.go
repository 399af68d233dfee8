// Package handler exposes the audit read API. It is a thin transport
// layer: all payload unwrapping happens in the query service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"audittrail/internal/audit"
	"audittrail/internal/platform/middleware"
	dErrors "audittrail/pkg/domain-errors"
)

// Service defines the read operations the handler serves.
type Service interface {
	GetAll(ctx context.Context) ([]audit.RecordDTO, error)
	GetByActor(ctx context.Context, actorID string) ([]audit.RecordDTO, error)
}

// Handler handles the audit log endpoints.
type Handler struct {
	logger  *slog.Logger
	query   Service
	timeout time.Duration
}

func New(query Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		query:   query,
		timeout: 30 * time.Second,
	}
}

// Register mounts the audit routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	logsRouter := chi.NewRouter()
	logsRouter.Use(middleware.Recovery(h.logger))
	logsRouter.Use(middleware.RequestID)
	logsRouter.Use(middleware.Logger(h.logger))
	logsRouter.Use(middleware.Timeout(h.timeout))
	logsRouter.Use(middleware.ContentTypeJSON)
	logsRouter.Get("/api/logs", h.handleGetLogs)
	logsRouter.Get("/api/logs/actor/{actorID}", h.handleGetLogsByActor)

	r.Mount("/", logsRouter)
}

// handleGetLogs returns every audit record, newest first. An empty store
// yields an empty list, never an error.
func (h *Handler) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.query.GetAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit records",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGetLogsByActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := chi.URLParam(r, "actorID")

	records, err := h.query.GetByActor(ctx, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit records by actor",
			"request_id", middleware.GetRequestID(ctx),
			"actor_id", actorID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to HTTP responses so
// every endpoint shares one JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}
