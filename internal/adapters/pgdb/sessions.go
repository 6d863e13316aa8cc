package pgdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
	"golang.org/x/sync/errgroup"
)

func (r *Repository) CreateSession(ctx context.Context, showID, domeID uuid.UUID, showTime time.Time) (*domain.Session, error) {
	session := domain.Session{
		ID:       uuid.New(),
		ShowID:   showID,
		DomeID:   domeID,
		ShowTime: showTime.UTC(),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, show_id, dome_id, show_time)
		VALUES ($1, $2, $3, $4)
	`, session.ID, session.ShowID, session.DomeID, session.ShowTime)
	if isForeignKeyViolation(err) {
		return nil, errors.Wrap(domain.ErrNotFound, "show or dome")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *Repository) UpdateSession(ctx context.Context, session domain.Session) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE sessions SET show_id = $2, dome_id = $3, show_time = $4 WHERE id = $1
	`, session.ID, session.ShowID, session.DomeID, session.ShowTime.UTC())
	if isForeignKeyViolation(err) {
		return errors.Wrap(domain.ErrNotFound, "show or dome")
	}
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListSessions returns session summaries with tickets_available computed in
// the same aggregate query as capacity minus the distinct ticket count. The
// count is a snapshot, not a reservation guarantee. A non-nil date filters by
// the UTC calendar date of show_time.
func (r *Repository) ListSessions(ctx context.Context, date *time.Time, limit, offset int) ([]domain.SessionSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, sh.title, d.name, s.show_time,
		       d.seat_rows * d.seats_in_row - COUNT(DISTINCT t.id) AS tickets_available
		FROM sessions s
		JOIN shows sh ON sh.id = s.show_id
		JOIN domes d ON d.id = s.dome_id
		LEFT JOIN tickets t ON t.session_id = s.id
		WHERE $1::date IS NULL OR (s.show_time AT TIME ZONE 'UTC')::date = $1::date
		GROUP BY s.id, sh.title, d.name, s.show_time, d.seat_rows, d.seats_in_row
		ORDER BY s.show_time, s.id
		LIMIT $2 OFFSET $3
	`, date, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.SessionSummary, 0)
	for rows.Next() {
		var s domain.SessionSummary
		if err := rows.Scan(&s.ID, &s.ShowTitle, &s.DomeName, &s.ShowTime, &s.TicketsAvailable); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetSession returns the full session detail. The session row and its taken
// seats are independent reads, so they are fetched concurrently.
func (r *Repository) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error) {
	var det domain.SessionDetail

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.pool.QueryRow(gctx, `
			SELECT s.id, s.show_time,
			       sh.id, sh.title, sh.description,
			       d.id, d.name, d.seat_rows, d.seats_in_row
			FROM sessions s
			JOIN shows sh ON sh.id = s.show_id
			JOIN domes d ON d.id = s.dome_id
			WHERE s.id = $1
		`, sessionID).Scan(
			&det.ID, &det.ShowTime,
			&det.Show.ID, &det.Show.Title, &det.Show.Description,
			&det.Dome.ID, &det.Dome.Name, &det.Dome.Rows, &det.Dome.SeatsInRow,
		)
		if err == pgx.ErrNoRows {
			return errors.Wrapf(domain.ErrNotFound, "session %s", sessionID)
		}
		if err != nil {
			return err
		}
		det.Show.Themes, err = r.showThemes(gctx, det.Show.ID)
		return err
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `
			SELECT row_no, seat_no FROM tickets
			WHERE session_id = $1
			ORDER BY row_no, seat_no
		`, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		taken := make([]domain.SeatRef, 0)
		for rows.Next() {
			var ref domain.SeatRef
			if err := rows.Scan(&ref.Row, &ref.Seat); err != nil {
				return err
			}
			taken = append(taken, ref)
		}
		det.TakenSeats = taken
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &det, nil
}

// ComputeAvailability returns capacity minus the distinct ticket count for
// one session as a single aggregate query.
func (r *Repository) ComputeAvailability(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var available int
	err := r.pool.QueryRow(ctx, `
		SELECT d.seat_rows * d.seats_in_row - COUNT(DISTINCT t.id)
		FROM sessions s
		JOIN domes d ON d.id = s.dome_id
		LEFT JOIN tickets t ON t.session_id = s.id
		WHERE s.id = $1
		GROUP BY d.seat_rows, d.seats_in_row
	`, sessionID).Scan(&available)
	if err == pgx.ErrNoRows {
		return 0, errors.Wrapf(domain.ErrNotFound, "session %s", sessionID)
	}
	return available, err
}
