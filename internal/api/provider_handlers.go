package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"streambook/internal/db"
	"streambook/internal/events"
	"streambook/internal/service"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const eventsKeepAlive = 25 * time.Second

type ProviderBookingHandler struct {
	Lifecycle *service.LifecycleService
	events    events.Subscriber
	logger    *zap.Logger
}

func NewProviderBookingHandler(lifecycle *service.LifecycleService, subscriber events.Subscriber, logger *zap.Logger) *ProviderBookingHandler {
	return &ProviderBookingHandler{Lifecycle: lifecycle, events: subscriber, logger: logger}
}

func (h *ProviderBookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	list, err := h.Lifecycle.ListForProvider(r.Context(), id.AccountID, filterFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProviderBookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	booking, err := h.Lifecycle.Approve(r.Context(), mux.Vars(r)["id"], id.AccountID)
	h.respondTransition(w, booking, err)
}

func (h *ProviderBookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.Lifecycle.Reject)
}

func (h *ProviderBookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.Lifecycle.Cancel)
}

type reasonTransition func(ctx context.Context, bookingID, actingProviderID, reason string) (db.Booking, error)

func (h *ProviderBookingHandler) withReason(w http.ResponseWriter, r *http.Request, fn reasonTransition) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	booking, err := fn(r.Context(), mux.Vars(r)["id"], id.AccountID, req.Reason)
	h.respondTransition(w, booking, err)
}

func (h *ProviderBookingHandler) respondTransition(w http.ResponseWriter, booking db.Booking, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// Events streams the provider's booking change events as Server-Sent Events.
func (h *ProviderBookingHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	stream, stop, err := h.events.Subscribe(r.Context(), events.ProviderChannel(id.AccountID))
	if err != nil {
		h.logger.Error("event subscription failed", zap.String("provider_id", id.AccountID), zap.Error(err))
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case evt, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: booking\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
