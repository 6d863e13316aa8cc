package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
)

// Store is the persistence surface the handlers need. *pgdb.Repository is
// the production implementation.
type Store interface {
	CreateTheme(ctx context.Context, name string) (*domain.Theme, error)
	GetTheme(ctx context.Context, themeID uuid.UUID) (*domain.Theme, error)
	ListThemes(ctx context.Context, limit, offset int) ([]domain.Theme, error)
	UpdateTheme(ctx context.Context, themeID uuid.UUID, name string) (*domain.Theme, error)
	DeleteTheme(ctx context.Context, themeID uuid.UUID) error

	CreateShow(ctx context.Context, title, description string, themeIDs []uuid.UUID) (*domain.Show, error)
	GetShow(ctx context.Context, showID uuid.UUID) (*domain.Show, error)
	ListShows(ctx context.Context, themeIDs []uuid.UUID, limit, offset int) ([]domain.Show, error)
	UpdateShow(ctx context.Context, showID uuid.UUID, title, description string, themeIDs []uuid.UUID) (*domain.Show, error)
	DeleteShow(ctx context.Context, showID uuid.UUID) error

	CreateDome(ctx context.Context, name string, rows, seatsInRow int) (*domain.Dome, error)
	GetDome(ctx context.Context, domeID uuid.UUID) (*domain.Dome, error)
	ListDomes(ctx context.Context, limit, offset int) ([]domain.Dome, error)

	CreateSession(ctx context.Context, showID, domeID uuid.UUID, showTime time.Time) (*domain.Session, error)
	UpdateSession(ctx context.Context, session domain.Session) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	ListSessions(ctx context.Context, date *time.Time, limit, offset int) ([]domain.SessionSummary, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error)

	CreateReservation(ctx context.Context, userID uuid.UUID, requests []domain.TicketRequest) (*domain.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ReservationDetail, error)
	DeleteReservation(ctx context.Context, userID uuid.UUID, isStaff bool, reservationID uuid.UUID) error

	CreateTicket(ctx context.Context, reservationID uuid.UUID, req domain.TicketRequest) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, ticketID uuid.UUID) error
}

// Auditor records mutations for later inspection; the mongo adapter is the
// production implementation.
type Auditor interface {
	LogReservation(ctx context.Context, res domain.Reservation) error
	LogStaffAction(ctx context.Context, userID uuid.UUID, action string, data map[string]interface{}) error
}
