package api

import (
	"net/http"
	"streambook/internal/entities"
	"streambook/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Scheduler *service.SchedulerService
	Lifecycle *service.LifecycleService
	logger    *zap.Logger
}

func NewBookingHandler(scheduler *service.SchedulerService, lifecycle *service.LifecycleService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Scheduler: scheduler, Lifecycle: lifecycle, logger: logger}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req entities.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.SubscriberID = id.AccountID

	booking, err := h.Scheduler.RequestBooking(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	list, err := h.Lifecycle.ListForSubscriber(r.Context(), id.AccountID, filterFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	booking, err := h.Lifecycle.Get(r.Context(), mux.Vars(r)["id"], id.AccountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) CanStart(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	bookingID := mux.Vars(r)["id"]
	ok, err := h.Lifecycle.CanStart(r.Context(), bookingID, id.AccountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CanStartResponse{BookingID: bookingID, CanStart: ok})
}

func filterFromQuery(r *http.Request) entities.BookingFilter {
	q := r.URL.Query()
	return entities.BookingFilter{Status: q.Get("status"), Date: q.Get("date")}
}
