package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrUnauthorized("no token"), http.StatusUnauthorized},
		{NewValidationError("reason", "required"), http.StatusBadRequest},
		{&InvalidDurationError{Minutes: 20}, http.StatusBadRequest},
		{&ConfigNotFoundError{ProviderID: "p"}, http.StatusNotFound},
		{&NotFoundError{Resource: "booking", ID: "b"}, http.StatusNotFound},
		{&NotOwnerError{BookingID: "b"}, http.StatusForbidden},
		{&ProviderUnavailableError{ProviderID: "p"}, http.StatusUnprocessableEntity},
		{&LeadTimeError{}, http.StatusUnprocessableEntity},
		{&DailyCapacityError{Date: "2026-01-01", Max: 2}, http.StatusConflict},
		{&SlotConflictError{}, http.StatusConflict},
		{&InvalidTransitionError{From: "rejected", To: "approved"}, http.StatusConflict},
		{NewStorageError("insert booking", fmt.Errorf("connection reset")), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), "%v", c.err)
	}
}

func TestHTTPStatusSeesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("request booking: %w", &SlotConflictError{})
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestRejectionMessagesAreDistinct(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	msgs := []string{
		(&SlotConflictError{Start: start, End: start.Add(10 * time.Minute)}).Error(),
		(&LeadTimeError{Start: start, Earliest: start.Add(time.Minute)}).Error(),
		(&DailyCapacityError{Date: "2026-05-01", Max: 3}).Error(),
		(&ProviderUnavailableError{ProviderID: "p"}).Error(),
	}
	seen := map[string]bool{}
	for _, m := range msgs {
		assert.NotEmpty(t, m)
		assert.False(t, seen[m], m)
		seen[m] = true
	}
	assert.Contains(t, msgs[0], "already taken")
	assert.Contains(t, msgs[1], "too close to now")
	assert.Contains(t, msgs[2], "fully booked")
	assert.Contains(t, msgs[3], "not accepting")
}
