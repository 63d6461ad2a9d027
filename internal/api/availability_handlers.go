package api

import (
	"net/http"
	"strconv"
	"streambook/internal/entities"
	apperrors "streambook/internal/errors"
	"streambook/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	Service   *service.AvailabilityService
	Scheduler *service.SchedulerService
	logger    *zap.Logger
}

func NewAvailabilityHandler(svc *service.AvailabilityService, scheduler *service.SchedulerService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc, Scheduler: scheduler, logger: logger}
}

// GetPublic shows a provider's offer to subscribers.
func (h *AvailabilityHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.PublicView(r.Context(), mux.Vars(r)["providerId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AvailabilityHandler) Quote(w http.ResponseWriter, r *http.Request) {
	minutes, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		writeError(w, h.logger, apperrors.NewValidationError("duration", "must be a number of minutes"))
		return
	}
	quote, err := h.Scheduler.QuoteDetails(r.Context(), mux.Vars(r)["providerId"], minutes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *AvailabilityHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	cfg, err := h.Service.Get(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *AvailabilityHandler) UpdateOwn(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req entities.AvailabilityUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	cfg, err := h.Service.Upsert(r.Context(), id.AccountID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
