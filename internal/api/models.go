package api

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type CanStartResponse struct {
	BookingID string `json:"booking_id"`
	CanStart  bool   `json:"can_start"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
