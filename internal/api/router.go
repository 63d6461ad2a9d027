package api

import (
	"context"
	"net/http"
	"streambook/internal/auth"
	"streambook/internal/events"
	"streambook/internal/middleware"
	"streambook/internal/service"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Availability *service.AvailabilityService
	Scheduler    *service.SchedulerService
	Lifecycle    *service.LifecycleService
	Events       events.Subscriber
	Health       Pinger
	JWTSecret    []byte
	RateLimiter  *middleware.RateLimiter
	Logger       *zap.Logger
}

func NewRouter(d RouterDeps) *mux.Router {
	availabilityHandler := NewAvailabilityHandler(d.Availability, d.Scheduler, d.Logger)
	bookingHandler := NewBookingHandler(d.Scheduler, d.Lifecycle, d.Logger)
	providerHandler := NewProviderBookingHandler(d.Lifecycle, d.Events, d.Logger)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthz(d.Health)).Methods("GET")

	// Public endpoints
	r.HandleFunc("/api/providers/{providerId}/availability", availabilityHandler.GetPublic).Methods("GET")
	r.HandleFunc("/api/providers/{providerId}/quote", availabilityHandler.Quote).Methods("GET")

	// Any authenticated account
	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(auth.Middleware(d.JWTSecret))
	authed.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	authed.HandleFunc("/bookings/{id}/can-start", bookingHandler.CanStart).Methods("GET")

	// Subscriber endpoints
	subscriber := r.PathPrefix("/api/bookings").Subrouter()
	subscriber.Use(auth.Middleware(d.JWTSecret), auth.RequireRole(auth.RoleSubscriber))
	create := http.Handler(http.HandlerFunc(bookingHandler.CreateBooking))
	if d.RateLimiter != nil {
		create = d.RateLimiter.Middleware(create)
	}
	subscriber.Handle("", create).Methods("POST")
	subscriber.HandleFunc("", bookingHandler.ListMine).Methods("GET")

	// Provider endpoints
	provider := r.PathPrefix("/api/provider").Subrouter()
	provider.Use(auth.Middleware(d.JWTSecret), auth.RequireRole(auth.RoleProvider))
	provider.HandleFunc("/availability", availabilityHandler.GetOwn).Methods("GET")
	provider.HandleFunc("/availability", availabilityHandler.UpdateOwn).Methods("PUT")
	provider.HandleFunc("/bookings", providerHandler.ListBookings).Methods("GET")
	provider.HandleFunc("/bookings/events", providerHandler.Events).Methods("GET")
	provider.HandleFunc("/bookings/{id}/approve", providerHandler.Approve).Methods("POST")
	provider.HandleFunc("/bookings/{id}/reject", providerHandler.Reject).Methods("POST")
	provider.HandleFunc("/bookings/{id}/cancel", providerHandler.Cancel).Methods("POST")

	return r
}

func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
