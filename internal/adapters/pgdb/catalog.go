package pgdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
)

func (r *Repository) CreateTheme(ctx context.Context, name string) (*domain.Theme, error) {
	theme := domain.Theme{ID: uuid.New(), Name: name}
	_, err := r.pool.Exec(ctx, `INSERT INTO themes (id, name) VALUES ($1, $2)`, theme.ID, theme.Name)
	if isUniqueViolation(err) {
		return nil, &domain.FieldError{Field: "name", Message: "Theme with this name already exists."}
	}
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

func (r *Repository) GetTheme(ctx context.Context, themeID uuid.UUID) (*domain.Theme, error) {
	var theme domain.Theme
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM themes WHERE id = $1`, themeID).Scan(&theme.ID, &theme.Name)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

func (r *Repository) ListThemes(ctx context.Context, limit, offset int) ([]domain.Theme, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM themes ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	themes := make([]domain.Theme, 0)
	for rows.Next() {
		var theme domain.Theme
		if err := rows.Scan(&theme.ID, &theme.Name); err != nil {
			return nil, err
		}
		themes = append(themes, theme)
	}
	return themes, rows.Err()
}

func (r *Repository) UpdateTheme(ctx context.Context, themeID uuid.UUID, name string) (*domain.Theme, error) {
	result, err := r.pool.Exec(ctx, `UPDATE themes SET name = $2 WHERE id = $1`, themeID, name)
	if isUniqueViolation(err) {
		return nil, &domain.FieldError{Field: "name", Message: "Theme with this name already exists."}
	}
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.Theme{ID: themeID, Name: name}, nil
}

func (r *Repository) DeleteTheme(ctx context.Context, themeID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM themes WHERE id = $1`, themeID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateShow(ctx context.Context, title, description string, themeIDs []uuid.UUID) (*domain.Show, error) {
	show := domain.Show{ID: uuid.New(), Title: title, Description: description}
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO shows (id, title, description) VALUES ($1, $2, $3)
		`, show.ID, show.Title, show.Description)
		if err != nil {
			return err
		}
		for _, themeID := range themeIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO show_themes (show_id, theme_id) VALUES ($1, $2)
			`, show.ID, themeID)
			if isForeignKeyViolation(err) {
				return &domain.FieldError{Field: "themes", Message: "Unknown theme " + themeID.String() + "."}
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	show.Themes, err = r.showThemes(ctx, show.ID)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// UpdateShow replaces the show's fields and its whole theme set in one
// transaction.
func (r *Repository) UpdateShow(ctx context.Context, showID uuid.UUID, title, description string, themeIDs []uuid.UUID) (*domain.Show, error) {
	show := domain.Show{ID: showID, Title: title, Description: description}
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE shows SET title = $2, description = $3 WHERE id = $1
		`, showID, title, description)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM show_themes WHERE show_id = $1`, showID); err != nil {
			return err
		}
		for _, themeID := range themeIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO show_themes (show_id, theme_id) VALUES ($1, $2)
			`, showID, themeID)
			if isForeignKeyViolation(err) {
				return &domain.FieldError{Field: "themes", Message: "Unknown theme " + themeID.String() + "."}
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	show.Themes, err = r.showThemes(ctx, showID)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// DeleteShow removes a show; its theme links, sessions and their tickets go
// with it via the schema's cascades.
func (r *Repository) DeleteShow(ctx context.Context, showID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM shows WHERE id = $1`, showID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) GetShow(ctx context.Context, showID uuid.UUID) (*domain.Show, error) {
	var show domain.Show
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, description FROM shows WHERE id = $1
	`, showID).Scan(&show.ID, &show.Title, &show.Description)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	show.Themes, err = r.showThemes(ctx, show.ID)
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// ListShows returns shows with their themes, optionally restricted to shows
// carrying at least one of the given themes. The theme filter is applied as
// an EXISTS subquery so a show linked to several matching themes still
// appears once.
func (r *Repository) ListShows(ctx context.Context, themeIDs []uuid.UUID, limit, offset int) ([]domain.Show, error) {
	query := `SELECT id, title, description FROM shows`
	args := make([]interface{}, 0, len(themeIDs)+2)
	if len(themeIDs) > 0 {
		placeholders := make([]string, len(themeIDs))
		for i, themeID := range themeIDs {
			args = append(args, themeID)
			placeholders[i] = "$" + strconv.Itoa(len(args))
		}
		query += ` WHERE EXISTS (
			SELECT 1 FROM show_themes st
			WHERE st.show_id = shows.id AND st.theme_id IN (` + strings.Join(placeholders, ",") + `))`
	}
	args = append(args, limit)
	query += ` ORDER BY title LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shows := make([]domain.Show, 0)
	for rows.Next() {
		var show domain.Show
		if err := rows.Scan(&show.ID, &show.Title, &show.Description); err != nil {
			return nil, err
		}
		shows = append(shows, show)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range shows {
		shows[i].Themes, err = r.showThemes(ctx, shows[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return shows, nil
}

func (r *Repository) showThemes(ctx context.Context, showID uuid.UUID) ([]domain.Theme, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT th.id, th.name
		FROM themes th
		JOIN show_themes st ON st.theme_id = th.id
		WHERE st.show_id = $1
		ORDER BY th.name
	`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	themes := make([]domain.Theme, 0)
	for rows.Next() {
		var theme domain.Theme
		if err := rows.Scan(&theme.ID, &theme.Name); err != nil {
			return nil, err
		}
		themes = append(themes, theme)
	}
	return themes, rows.Err()
}

// CreateDome stores a new seating grid. Geometry is validated here and never
// updated afterwards; shrinking a dome under sold seats is unsupported.
func (r *Repository) CreateDome(ctx context.Context, name string, rows, seatsInRow int) (*domain.Dome, error) {
	if rows < 1 {
		return nil, &domain.FieldError{Field: "rows", Message: "Rows must be a positive integer."}
	}
	if seatsInRow < 1 {
		return nil, &domain.FieldError{Field: "seats_in_row", Message: "Seats in row must be a positive integer."}
	}
	dome := domain.Dome{ID: uuid.New(), Name: name, Rows: rows, SeatsInRow: seatsInRow}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO domes (id, name, seat_rows, seats_in_row) VALUES ($1, $2, $3, $4)
	`, dome.ID, dome.Name, dome.Rows, dome.SeatsInRow)
	if err != nil {
		return nil, err
	}
	return &dome, nil
}

func (r *Repository) GetDome(ctx context.Context, domeID uuid.UUID) (*domain.Dome, error) {
	var dome domain.Dome
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, seat_rows, seats_in_row FROM domes WHERE id = $1
	`, domeID).Scan(&dome.ID, &dome.Name, &dome.Rows, &dome.SeatsInRow)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dome, nil
}

func (r *Repository) ListDomes(ctx context.Context, limit, offset int) ([]domain.Dome, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, seat_rows, seats_in_row FROM domes ORDER BY name LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	domes := make([]domain.Dome, 0)
	for rows.Next() {
		var dome domain.Dome
		if err := rows.Scan(&dome.ID, &dome.Name, &dome.Rows, &dome.SeatsInRow); err != nil {
			return nil, err
		}
		domes = append(domes, dome)
	}
	return domes, rows.Err()
}
