package domain

import (
	"time"

	"github.com/google/uuid"
)

type Theme struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Show struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Themes      []Theme   `json:"themes"`
}

// Dome is a fixed seating grid. Rows and SeatsInRow never change once
// sessions reference the dome; ticket bounds validation depends on that.
type Dome struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Rows       int       `json:"rows"`
	SeatsInRow int       `json:"seats_in_row"`
}

func (d Dome) Capacity() int {
	return d.Rows * d.SeatsInRow
}

type Session struct {
	ID       uuid.UUID `json:"id"`
	ShowID   uuid.UUID `json:"show_id"`
	DomeID   uuid.UUID `json:"dome_id"`
	ShowTime time.Time `json:"show_time"`
}

// SessionSummary is the list-view shape: joined show/dome names plus the
// availability count computed by the store in the same query.
type SessionSummary struct {
	ID               uuid.UUID `json:"id"`
	ShowTitle        string    `json:"show_title"`
	DomeName         string    `json:"dome_name"`
	ShowTime         time.Time `json:"show_time"`
	TicketsAvailable int       `json:"tickets_available"`
}

type SeatRef struct {
	Row  int `json:"row"`
	Seat int `json:"seat"`
}

type SessionDetail struct {
	ID         uuid.UUID `json:"id"`
	Show       Show      `json:"show"`
	Dome       Dome      `json:"dome"`
	ShowTime   time.Time `json:"show_time"`
	TakenSeats []SeatRef `json:"taken_seats"`
}

type Ticket struct {
	ID        uuid.UUID `json:"id"`
	Row       int       `json:"row"`
	Seat      int       `json:"seat"`
	SessionID uuid.UUID `json:"session_id"`
}

// TicketRequest is one seat the caller wants inside a reservation. Requests
// are validated and inserted in the order supplied.
type TicketRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Row       int       `json:"row"`
	Seat      int       `json:"seat"`
}

// Reservation owns its tickets: they are created with it in one transaction
// and deleted with it in one transaction.
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Tickets   []Ticket  `json:"tickets"`
}

// TicketWithSession is a ticket joined with its session summary, used when
// listing a user's reservations.
type TicketWithSession struct {
	ID      uuid.UUID      `json:"id"`
	Row     int            `json:"row"`
	Seat    int            `json:"seat"`
	Session SessionSummary `json:"session"`
}

type ReservationDetail struct {
	ID        uuid.UUID           `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Tickets   []TicketWithSession `json:"tickets"`
}

func NewReservation(userID uuid.UUID) Reservation {
	return Reservation{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}
