package domain

import "errors"

// Domain errors surfaced to API clients. Handlers map these to HTTP
// statuses; anything else is treated as an internal error.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrOutsideAvailability   = errors.New("selected time is outside doctor's availability")
	ErrDayFullyBooked        = errors.New("all slots for this day are fully booked")
	ErrSlotConflict          = errors.New("time slot not available")
	ErrForbidden             = errors.New("forbidden")
	ErrConfirmedCannotCancel = errors.New("confirmed appointment cannot be cancelled here")
	ErrEmailTaken            = errors.New("email already in use")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)
