package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"streambook/internal/auth"
	apperrors "streambook/internal/errors"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError reports business errors with their own message and hides
// infrastructure details behind a generic one.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var invalid *invalidRequestError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: invalid.Error(), Details: invalid.details})
		return
	}
	status := apperrors.HTTPStatus(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", zap.Error(err))
		msg = "Internal error"
	case http.StatusServiceUnavailable:
		logger.Error("storage unavailable", zap.Error(err))
		msg = "Service temporarily unavailable, please retry"
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads the body into v and validates its shape.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.ErrBadRequest("Invalid request body: " + err.Error())
	}
	return validateRequest(v)
}

// caller returns the authenticated identity set by auth.Middleware.
func caller(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return auth.Identity{}, apperrors.ErrUnauthorized("Unauthorized")
	}
	return id, nil
}
