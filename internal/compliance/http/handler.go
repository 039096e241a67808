// Package compliancehttp serves compliance scores over JSON.
package compliancehttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ngtax/ngtax/internal/compliance"
	filinghttp "github.com/ngtax/ngtax/internal/filing/http"
	"github.com/ngtax/ngtax/internal/platform/httpx"
	"github.com/ngtax/ngtax/internal/tax"
)

const (
	defaultHistoryLimit = 12
	maxHistoryLimit     = 120
)

var errMalformedID = errors.New("malformed identifier")

// Handler serves compliance endpoints.
type Handler struct {
	logger  *slog.Logger
	service *compliance.Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *compliance.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountEntityRoutes registers routes below /api/entities/{entityID}.
func (h *Handler) MountEntityRoutes(r chi.Router) {
	r.Get("/compliance", h.evaluate)
	r.Get("/compliance/history", h.history)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	entityID, err := entityParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, month, err := filinghttp.PeriodQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Evaluate(r.Context(), entityID, year, month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if result.Alerts == nil {
		result.Alerts = []compliance.Alert{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	entityID, err := entityParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxHistoryLimit {
			httpx.RespondError(w, tax.Invalid("limit", errors.New("out of range"), raw))
			return
		}
	}
	results, err := h.service.History(r.Context(), entityID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if results == nil {
		results = []compliance.Result{}
	}
	httpx.JSON(w, http.StatusOK, results)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !tax.IsValidation(err) && !errors.Is(err, httpx.ErrNotFound) {
		h.logger.Error("compliance request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func entityParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "entityID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, tax.Invalid("entity_id", errMalformedID, raw)
	}
	return id, nil
}
