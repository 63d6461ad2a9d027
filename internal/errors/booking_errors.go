package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type ConfigNotFoundError struct {
	ProviderID string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("provider %s has no streaming configuration", e.ProviderID)
}

type ProviderUnavailableError struct {
	ProviderID string
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s is not accepting streaming bookings", e.ProviderID)
}

type InvalidDurationError struct {
	Minutes int
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("%d minutes is not an offered session length (choose 5, 10, 15 or 30)", e.Minutes)
}

type LeadTimeError struct {
	Start    time.Time
	Earliest time.Time
}

func (e *LeadTimeError) Error() string {
	return fmt.Sprintf("session at %s is too close to now; earliest allowed start is %s",
		e.Start.Format(time.RFC3339), e.Earliest.Format(time.RFC3339))
}

type DailyCapacityError struct {
	Date string
	Max  int
}

func (e *DailyCapacityError) Error() string {
	return fmt.Sprintf("provider is fully booked on %s (limit %d sessions per day)", e.Date, e.Max)
}

type SlotConflictError struct {
	Start time.Time
	End   time.Time
}

func (e *SlotConflictError) Error() string {
	if e.Start.IsZero() {
		return "this slot is already taken"
	}
	return fmt.Sprintf("this slot is already taken by a session from %s to %s",
		e.Start.Format("15:04"), e.End.Format("15:04"))
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking cannot move from %s to %s", e.From, e.To)
}

type NotOwnerError struct {
	BookingID string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("booking %s belongs to another provider", e.BookingID)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StorageError is an infrastructure failure in the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func IsStorage(err error) bool {
	var s *StorageError
	return stderrors.As(err, &s)
}
