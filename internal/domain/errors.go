package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
)

// FieldError is a validation failure attributable to one request field.
// Handlers render it as a 400 body of the form {<field>: <message>}.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// SeatTakenError reports that (row, seat) for a session is already owned by
// some ticket, possibly one committed by a concurrent transaction. It is kept
// distinct from plain validation errors so clients can offer seat re-picking.
type SeatTakenError struct {
	SessionID uuid.UUID
	Row       int
	Seat      int
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat (row %d, seat %d) already taken for session %s", e.Row, e.Seat, e.SessionID)
}

// TicketError tags a failure with the position of the offending ticket
// request inside a reservation-creation call.
type TicketError struct {
	Index int
	Err   error
}

func (e *TicketError) Error() string {
	return fmt.Sprintf("ticket %d: %v", e.Index, e.Err)
}

func (e *TicketError) Unwrap() error { return e.Err }
