package pgdb_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/planetarium-reservations/internal/adapters/pgdb"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRepo(t *testing.T) (*pgdb.Repository, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16",
			Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_DB": "planetarium"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, "postgresql://postgres:postgres@"+host+":"+port.Port()+"/planetarium?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatal(err)
	}

	return pgdb.NewRepository(pool), pool
}

// seedSession creates a theme, show, dome and session and returns the session
// plus the dome it plays in.
func seedSession(t *testing.T, repo *pgdb.Repository, rows, seatsInRow int, showTime time.Time) (*domain.Session, *domain.Dome) {
	t.Helper()
	ctx := context.Background()

	theme, err := repo.CreateTheme(ctx, "Deep Space "+uuid.NewString()[:8])
	if err != nil {
		t.Fatal(err)
	}
	show, err := repo.CreateShow(ctx, "Journey "+uuid.NewString()[:8], "A tour of the outer planets.", []uuid.UUID{theme.ID})
	if err != nil {
		t.Fatal(err)
	}
	dome, err := repo.CreateDome(ctx, "Dome "+uuid.NewString()[:8], rows, seatsInRow)
	if err != nil {
		t.Fatal(err)
	}
	session, err := repo.CreateSession(ctx, show.ID, dome.ID, showTime)
	if err != nil {
		t.Fatal(err)
	}
	return session, dome
}

func TestRepository(t *testing.T) {
	repo, pool := setupRepo(t)
	ctx := context.Background()

	t.Run("reservation lifecycle and availability", func(t *testing.T) {
		session, dome := seedSession(t, repo, 10, 15, time.Now().UTC().Add(24*time.Hour))
		userID := uuid.New()

		res, err := repo.CreateReservation(ctx, userID, []domain.TicketRequest{
			{SessionID: session.ID, Row: 1, Seat: 1},
			{SessionID: session.ID, Row: 2, Seat: 5},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Tickets) != 2 {
			t.Fatalf("expected 2 tickets, got %d", len(res.Tickets))
		}
		if res.Tickets[0].Row != 1 || res.Tickets[1].Row != 2 {
			t.Errorf("tickets out of request order: %+v", res.Tickets)
		}

		available, err := repo.ComputeAvailability(ctx, session.ID)
		if err != nil {
			t.Fatal(err)
		}
		if want := dome.Capacity() - 2; available != want {
			t.Errorf("expected %d seats available, got %d", want, available)
		}

		details, err := repo.ListReservationsByUser(ctx, userID, 20, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(details) != 1 || len(details[0].Tickets) != 2 {
			t.Fatalf("unexpected listing %+v", details)
		}
		if details[0].Tickets[0].Session.TicketsAvailable != dome.Capacity()-2 {
			t.Errorf("availability not joined into listing: %+v", details[0].Tickets[0])
		}

		if err := repo.DeleteReservation(ctx, userID, false, res.ID); err != nil {
			t.Fatal(err)
		}
		available, err = repo.ComputeAvailability(ctx, session.ID)
		if err != nil {
			t.Fatal(err)
		}
		if available != dome.Capacity() {
			t.Errorf("tickets survived reservation delete: %d available", available)
		}
		var orphans int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE reservation_id = $1`, res.ID).Scan(&orphans); err != nil {
			t.Fatal(err)
		}
		if orphans != 0 {
			t.Errorf("expected 0 orphan tickets, got %d", orphans)
		}
	})

	t.Run("empty ticket list rejected", func(t *testing.T) {
		_, err := repo.CreateReservation(ctx, uuid.New(), nil)
		var fieldErr *domain.FieldError
		if !errors.As(err, &fieldErr) || fieldErr.Field != "tickets" {
			t.Fatalf("expected tickets FieldError, got %v", err)
		}
		if fieldErr.Message != "This list may not be empty." {
			t.Errorf("unexpected message %q", fieldErr.Message)
		}
	})

	t.Run("seat outside dome bounds rejected atomically", func(t *testing.T) {
		session, dome := seedSession(t, repo, 10, 15, time.Now().UTC().Add(24*time.Hour))
		userID := uuid.New()

		_, err := repo.CreateReservation(ctx, userID, []domain.TicketRequest{
			{SessionID: session.ID, Row: 3, Seat: 3},
			{SessionID: session.ID, Row: 99, Seat: 1},
		})
		var ticketErr *domain.TicketError
		if !errors.As(err, &ticketErr) || ticketErr.Index != 1 {
			t.Fatalf("expected TicketError at index 1, got %v", err)
		}
		var fieldErr *domain.FieldError
		if !errors.As(ticketErr.Err, &fieldErr) || fieldErr.Field != "row" {
			t.Fatalf("expected row FieldError, got %v", ticketErr.Err)
		}
		if fieldErr.Message != "Row number must be in range [1, 10]." {
			t.Errorf("unexpected message %q", fieldErr.Message)
		}

		// The valid first ticket must not have been committed.
		available, err := repo.ComputeAvailability(ctx, session.ID)
		if err != nil {
			t.Fatal(err)
		}
		if available != dome.Capacity() {
			t.Errorf("partial reservation committed: %d available", available)
		}
	})

	t.Run("duplicate seat conflicts", func(t *testing.T) {
		session, _ := seedSession(t, repo, 5, 5, time.Now().UTC().Add(24*time.Hour))

		if _, err := repo.CreateReservation(ctx, uuid.New(), []domain.TicketRequest{
			{SessionID: session.ID, Row: 2, Seat: 2},
		}); err != nil {
			t.Fatal(err)
		}

		_, err := repo.CreateReservation(ctx, uuid.New(), []domain.TicketRequest{
			{SessionID: session.ID, Row: 2, Seat: 2},
		})
		var ticketErr *domain.TicketError
		if !errors.As(err, &ticketErr) || ticketErr.Index != 0 {
			t.Fatalf("expected TicketError at index 0, got %v", err)
		}
		var seatErr *domain.SeatTakenError
		if !errors.As(ticketErr.Err, &seatErr) {
			t.Fatalf("expected SeatTakenError, got %v", ticketErr.Err)
		}
		if seatErr.Row != 2 || seatErr.Seat != 2 || seatErr.SessionID != session.ID {
			t.Errorf("unexpected conflict detail %+v", seatErr)
		}
	})

	t.Run("unknown session in ticket list", func(t *testing.T) {
		_, err := repo.CreateReservation(ctx, uuid.New(), []domain.TicketRequest{
			{SessionID: uuid.New(), Row: 1, Seat: 1},
		})
		var ticketErr *domain.TicketError
		if !errors.As(err, &ticketErr) || !errors.Is(ticketErr.Err, domain.ErrNotFound) {
			t.Fatalf("expected not-found TicketError, got %v", err)
		}
	})

	t.Run("reservations listed newest first and owner scoped", func(t *testing.T) {
		session, _ := seedSession(t, repo, 8, 8, time.Now().UTC().Add(24*time.Hour))
		owner := uuid.New()
		other := uuid.New()

		first, err := repo.CreateReservation(ctx, owner, []domain.TicketRequest{{SessionID: session.ID, Row: 1, Seat: 1}})
		if err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
		second, err := repo.CreateReservation(ctx, owner, []domain.TicketRequest{{SessionID: session.ID, Row: 1, Seat: 2}})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := repo.CreateReservation(ctx, other, []domain.TicketRequest{{SessionID: session.ID, Row: 1, Seat: 3}}); err != nil {
			t.Fatal(err)
		}

		details, err := repo.ListReservationsByUser(ctx, owner, 20, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(details) != 2 {
			t.Fatalf("expected 2 reservations for owner, got %d", len(details))
		}
		if details[0].ID != second.ID || details[1].ID != first.ID {
			t.Errorf("expected newest first, got %v then %v", details[0].ID, details[1].ID)
		}
	})

	t.Run("delete reservation ownership", func(t *testing.T) {
		session, _ := seedSession(t, repo, 4, 4, time.Now().UTC().Add(24*time.Hour))
		owner := uuid.New()

		res, err := repo.CreateReservation(ctx, owner, []domain.TicketRequest{{SessionID: session.ID, Row: 1, Seat: 1}})
		if err != nil {
			t.Fatal(err)
		}

		if err := repo.DeleteReservation(ctx, uuid.New(), false, res.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for stranger, got %v", err)
		}
		if err := repo.DeleteReservation(ctx, uuid.New(), true, res.ID); err != nil {
			t.Fatalf("staff delete failed: %v", err)
		}
		if err := repo.DeleteReservation(ctx, owner, false, res.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("session list date filter", func(t *testing.T) {
		day := time.Date(2031, 3, 14, 18, 30, 0, 0, time.UTC)
		session, _ := seedSession(t, repo, 6, 6, day)
		seedSession(t, repo, 6, 6, day.Add(48*time.Hour))

		filter := time.Date(2031, 3, 14, 0, 0, 0, 0, time.UTC)
		summaries, err := repo.ListSessions(ctx, &filter, 100, 0)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, s := range summaries {
			if !s.ShowTime.UTC().Truncate(24 * time.Hour).Equal(filter) {
				t.Errorf("session %s outside date filter: %s", s.ID, s.ShowTime)
			}
			if s.ID == session.ID {
				found = true
				if s.TicketsAvailable != 36 {
					t.Errorf("expected 36 available, got %d", s.TicketsAvailable)
				}
			}
		}
		if !found {
			t.Error("seeded session missing from filtered list")
		}
	})

	t.Run("session detail taken seats ordered", func(t *testing.T) {
		session, _ := seedSession(t, repo, 7, 7, time.Now().UTC().Add(24*time.Hour))
		if _, err := repo.CreateReservation(ctx, uuid.New(), []domain.TicketRequest{
			{SessionID: session.ID, Row: 3, Seat: 2},
			{SessionID: session.ID, Row: 1, Seat: 4},
			{SessionID: session.ID, Row: 3, Seat: 1},
		}); err != nil {
			t.Fatal(err)
		}

		detail, err := repo.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatal(err)
		}
		want := []domain.SeatRef{{Row: 1, Seat: 4}, {Row: 3, Seat: 1}, {Row: 3, Seat: 2}}
		if len(detail.TakenSeats) != len(want) {
			t.Fatalf("expected %d taken seats, got %d", len(want), len(detail.TakenSeats))
		}
		for i, ref := range want {
			if detail.TakenSeats[i] != ref {
				t.Errorf("taken seat %d: expected %+v, got %+v", i, ref, detail.TakenSeats[i])
			}
		}
		if detail.Dome.Rows != 7 || detail.Dome.SeatsInRow != 7 {
			t.Errorf("unexpected dome geometry %+v", detail.Dome)
		}
	})

	t.Run("staff ticket path", func(t *testing.T) {
		session, _ := seedSession(t, repo, 5, 5, time.Now().UTC().Add(24*time.Hour))
		owner := uuid.New()
		res, err := repo.CreateReservation(ctx, owner, []domain.TicketRequest{{SessionID: session.ID, Row: 1, Seat: 1}})
		if err != nil {
			t.Fatal(err)
		}

		ticket, err := repo.CreateTicket(ctx, res.ID, domain.TicketRequest{SessionID: session.ID, Row: 2, Seat: 2})
		if err != nil {
			t.Fatal(err)
		}

		details, err := repo.ListReservationsByUser(ctx, owner, 20, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(details[0].Tickets) != 2 || details[0].Tickets[1].ID != ticket.ID {
			t.Errorf("appended ticket not last in order: %+v", details[0].Tickets)
		}

		if err := repo.DeleteTicket(ctx, ticket.ID); err != nil {
			t.Fatal(err)
		}
		if err := repo.DeleteTicket(ctx, ticket.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		if _, err := repo.CreateTicket(ctx, uuid.New(), domain.TicketRequest{SessionID: session.ID, Row: 3, Seat: 3}); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown reservation, got %v", err)
		}
	})

	t.Run("concurrent reservations for one seat", func(t *testing.T) {
		session, dome := seedSession(t, repo, 6, 6, time.Now().UTC().Add(24*time.Hour))

		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				_, err := repo.CreateReservation(ctx, uuid.New(), []domain.TicketRequest{
					{SessionID: session.ID, Row: 4, Seat: 4},
				})
				results <- err
			}()
		}

		var successes, conflicts int
		for i := 0; i < 2; i++ {
			err := <-results
			if err == nil {
				successes++
				continue
			}
			var seatErr *domain.SeatTakenError
			if errors.As(err, &seatErr) || errors.Is(err, domain.ErrSerializationFailure) {
				conflicts++
				continue
			}
			t.Fatalf("unexpected race outcome: %v", err)
		}
		if successes != 1 || conflicts != 1 {
			t.Fatalf("expected 1 success and 1 conflict, got %d/%d", successes, conflicts)
		}

		available, err := repo.ComputeAvailability(ctx, session.ID)
		if err != nil {
			t.Fatal(err)
		}
		if available != dome.Capacity()-1 {
			t.Errorf("expected exactly one seat booked, %d available", available)
		}
	})

	t.Run("theme and show update and delete", func(t *testing.T) {
		themeA, err := repo.CreateTheme(ctx, "Comets "+uuid.NewString()[:8])
		if err != nil {
			t.Fatal(err)
		}
		themeB, err := repo.CreateTheme(ctx, "Meteors "+uuid.NewString()[:8])
		if err != nil {
			t.Fatal(err)
		}

		renamed, err := repo.UpdateTheme(ctx, themeA.ID, "Asteroids "+uuid.NewString()[:8])
		if err != nil {
			t.Fatal(err)
		}
		got, err := repo.GetTheme(ctx, themeA.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Name != renamed.Name {
			t.Errorf("rename not persisted: %q vs %q", got.Name, renamed.Name)
		}
		var fieldErr *domain.FieldError
		if _, err := repo.UpdateTheme(ctx, themeA.ID, themeB.Name); !errors.As(err, &fieldErr) || fieldErr.Field != "name" {
			t.Fatalf("expected name FieldError on duplicate rename, got %v", err)
		}
		if _, err := repo.UpdateTheme(ctx, uuid.New(), "Nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown theme, got %v", err)
		}

		show, err := repo.CreateShow(ctx, "Dust Trails", "Where meteor showers come from.", []uuid.UUID{themeA.ID})
		if err != nil {
			t.Fatal(err)
		}
		updated, err := repo.UpdateShow(ctx, show.ID, "Dust Trails II", "Revised.", []uuid.UUID{themeB.ID})
		if err != nil {
			t.Fatal(err)
		}
		if updated.Title != "Dust Trails II" || len(updated.Themes) != 1 || updated.Themes[0].ID != themeB.ID {
			t.Errorf("theme set not replaced: %+v", updated)
		}
		if _, err := repo.UpdateShow(ctx, show.ID, "X", "", []uuid.UUID{uuid.New()}); !errors.As(err, &fieldErr) || fieldErr.Field != "themes" {
			t.Fatalf("expected themes FieldError for unknown theme, got %v", err)
		}

		if err := repo.DeleteShow(ctx, show.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.GetShow(ctx, show.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.DeleteShow(ctx, show.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("outbox relay publishes each row once", func(t *testing.T) {
		session, _ := seedSession(t, repo, 3, 3, time.Now().UTC().Add(24*time.Hour))
		res, err := repo.CreateReservation(ctx, uuid.New(), []domain.TicketRequest{{SessionID: session.ID, Row: 1, Seat: 1}})
		if err != nil {
			t.Fatal(err)
		}

		// First pass: every publish fails, so nothing is marked.
		n, err := repo.RelayOutbox(ctx, 100, func(ctx context.Context, rec pgdb.OutboxRecord) error {
			return errors.New("broker down")
		})
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Fatalf("expected 0 published on failing pass, got %d", n)
		}

		var delivered []pgdb.OutboxRecord
		n, err = repo.RelayOutbox(ctx, 100, func(ctx context.Context, rec pgdb.OutboxRecord) error {
			delivered = append(delivered, rec)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if n != len(delivered) || n == 0 {
			t.Fatalf("expected all %d deliveries marked, got %d", len(delivered), n)
		}
		found := false
		for _, rec := range delivered {
			if rec.AggregateID == res.ID && rec.EventType == "reservation.created" {
				found = true
			}
		}
		if !found {
			t.Fatal("reservation.created outbox row missing")
		}

		n, err = repo.RelayOutbox(ctx, 100, func(ctx context.Context, rec pgdb.OutboxRecord) error {
			t.Errorf("row %s delivered twice", rec.ID)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("expected empty relay pass, got %d", n)
		}
	})
}
