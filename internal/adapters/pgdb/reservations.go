package pgdb

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
	"github.com/robertarktes/planetarium-reservations/internal/observability"
)

// sessionGeometry resolves the dome bounds for a session inside the
// transaction, so the geometry used for validation is the one the insert
// will be checked against.
func sessionGeometry(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (rows, seatsInRow int, err error) {
	err = tx.QueryRow(ctx, `
		SELECT d.seat_rows, d.seats_in_row
		FROM sessions s
		JOIN domes d ON d.id = s.dome_id
		WHERE s.id = $1
	`, sessionID).Scan(&rows, &seatsInRow)
	if err == pgx.ErrNoRows {
		return 0, 0, errors.Wrapf(domain.ErrNotFound, "session %s", sessionID)
	}
	return rows, seatsInRow, err
}

// insertTicket persists one ticket row. It re-checks seat bounds at the write
// path and translates a violation of the (session, row, seat) uniqueness
// constraint into SeatTakenError. That constraint, not this function, is the
// final arbiter between concurrent reservation attempts.
func insertTicket(ctx context.Context, tx pgx.Tx, t domain.Ticket, reservationID uuid.UUID, position, rows, seatsInRow int) error {
	if err := domain.ValidateSeat(t.Row, t.Seat, rows, seatsInRow); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO tickets (id, row_no, seat_no, session_id, reservation_id, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Row, t.Seat, t.SessionID, reservationID, position)
	if isUniqueViolation(err) {
		observability.SeatConflicts.Inc()
		return &domain.SeatTakenError{SessionID: t.SessionID, Row: t.Row, Seat: t.Seat}
	}
	return err
}

// CreateReservation creates a reservation and all requested tickets as one
// serializable transaction. Requests are processed in caller order; the first
// failure aborts the whole transaction and is tagged with the request index.
func (r *Repository) CreateReservation(ctx context.Context, userID uuid.UUID, requests []domain.TicketRequest) (*domain.Reservation, error) {
	if len(requests) == 0 {
		return nil, &domain.FieldError{Field: "tickets", Message: "This list may not be empty."}
	}

	res := domain.NewReservation(userID)
	res.Tickets = make([]domain.Ticket, 0, len(requests))

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO reservations (id, user_id, created_at)
			VALUES ($1, $2, $3)
		`, res.ID, res.UserID, res.CreatedAt)
		if err != nil {
			return err
		}

		for i, req := range requests {
			rows, seatsInRow, err := sessionGeometry(ctx, tx, req.SessionID)
			if err != nil {
				return &domain.TicketError{Index: i, Err: err}
			}
			if err := domain.ValidateSeat(req.Row, req.Seat, rows, seatsInRow); err != nil {
				return &domain.TicketError{Index: i, Err: err}
			}
			ticket := domain.Ticket{
				ID:        uuid.New(),
				Row:       req.Row,
				Seat:      req.Seat,
				SessionID: req.SessionID,
			}
			if err := insertTicket(ctx, tx, ticket, res.ID, i, rows, seatsInRow); err != nil {
				return &domain.TicketError{Index: i, Err: err}
			}
			res.Tickets = append(res.Tickets, ticket)
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"reservation_id": res.ID,
			"user_id":        res.UserID,
			"tickets":        len(res.Tickets),
		})
		return r.InsertOutbox(ctx, tx, OutboxRecord{
			ID:            uuid.New(),
			AggregateType: "reservation",
			AggregateID:   res.ID,
			EventType:     "reservation.created",
			Payload:       payload,
			DedupeKey:     uuid.New().String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListReservationsByUser returns the user's reservations newest first with
// their tickets in request order. Ownership is a query filter, not a
// post-filter: rows for other users are never fetched.
func (r *Repository) ListReservationsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ReservationDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]domain.ReservationDetail, 0)
	for rows.Next() {
		var det domain.ReservationDetail
		if err := rows.Scan(&det.ID, &det.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range details {
		tickets, err := r.reservationTickets(ctx, details[i].ID)
		if err != nil {
			return nil, err
		}
		details[i].Tickets = tickets
	}
	return details, nil
}

func (r *Repository) reservationTickets(ctx context.Context, reservationID uuid.UUID) ([]domain.TicketWithSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.row_no, t.seat_no,
		       s.id, sh.title, d.name, s.show_time,
		       d.seat_rows * d.seats_in_row
		           - (SELECT COUNT(DISTINCT tt.id) FROM tickets tt WHERE tt.session_id = s.id)
		FROM tickets t
		JOIN sessions s ON s.id = t.session_id
		JOIN shows sh ON sh.id = s.show_id
		JOIN domes d ON d.id = s.dome_id
		WHERE t.reservation_id = $1
		ORDER BY t.position
	`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.TicketWithSession, 0)
	for rows.Next() {
		var t domain.TicketWithSession
		if err := rows.Scan(
			&t.ID, &t.Row, &t.Seat,
			&t.Session.ID, &t.Session.ShowTitle, &t.Session.DomeName, &t.Session.ShowTime,
			&t.Session.TicketsAvailable,
		); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// DeleteReservation removes a reservation and every ticket it owns in one
// transaction. Non-staff callers may only delete their own reservations.
func (r *Repository) DeleteReservation(ctx context.Context, userID uuid.UUID, isStaff bool, reservationID uuid.UUID) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var ownerID uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT user_id FROM reservations WHERE id = $1 FOR UPDATE
		`, reservationID).Scan(&ownerID)
		if err == pgx.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if !isStaff && ownerID != userID {
			return domain.ErrForbidden
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE reservation_id = $1`, reservationID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, reservationID); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{"reservation_id": reservationID})
		return r.InsertOutbox(ctx, tx, OutboxRecord{
			ID:            uuid.New(),
			AggregateType: "reservation",
			AggregateID:   reservationID,
			EventType:     "reservation.deleted",
			Payload:       payload,
			DedupeKey:     uuid.New().String(),
		})
	})
}

// CreateTicket is the staff path for adding a single ticket to an existing
// reservation, under the same validation and uniqueness handling as
// reservation creation.
func (r *Repository) CreateTicket(ctx context.Context, reservationID uuid.UUID, req domain.TicketRequest) (*domain.Ticket, error) {
	ticket := domain.Ticket{
		ID:        uuid.New(),
		Row:       req.Row,
		Seat:      req.Seat,
		SessionID: req.SessionID,
	}
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, reservationID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return errors.Wrapf(domain.ErrNotFound, "reservation %s", reservationID)
		}
		rows, seatsInRow, err := sessionGeometry(ctx, tx, req.SessionID)
		if err != nil {
			return err
		}
		var position int
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(position), -1) + 1 FROM tickets WHERE reservation_id = $1
		`, reservationID).Scan(&position); err != nil {
			return err
		}
		return insertTicket(ctx, tx, ticket, reservationID, position, rows, seatsInRow)
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *Repository) DeleteTicket(ctx context.Context, ticketID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, ticketID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
