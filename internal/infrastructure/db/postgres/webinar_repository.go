package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

const uniqueViolation = "23505"

// WebinarRepository implements ports.WebinarRepository on the webinars table.
type WebinarRepository struct {
	pool *pgxpool.Pool
}

func NewWebinarRepository(pool *pgxpool.Pool) *WebinarRepository {
	return &WebinarRepository{pool: pool}
}

func (r *WebinarRepository) Create(ctx context.Context, w *domain.Webinar) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p := w.Props()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webinars (id, organizer_id, title, start_date, end_date, seats)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.OrganizerID, p.Title, pgTime(p.StartDate), pgTime(p.EndDate), p.Seats)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrWebinarExists
		}
		return fmt.Errorf("insert webinar: %w", err)
	}
	return nil
}

func (r *WebinarRepository) FindByID(ctx context.Context, id string) (*domain.Webinar, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.WebinarProps
	err := r.pool.QueryRow(ctx, `
		SELECT id, organizer_id, title, start_date, end_date, seats
		FROM webinars
		WHERE id = $1
	`, id).Scan(&p.ID, &p.OrganizerID, &p.Title, &p.StartDate, &p.EndDate, &p.Seats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find webinar: %w", err)
	}
	p.StartDate = p.StartDate.UTC()
	p.EndDate = p.EndDate.UTC()
	return domain.NewWebinar(p), nil
}

func (r *WebinarRepository) Update(ctx context.Context, w *domain.Webinar) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p := w.Props()
	tag, err := r.pool.Exec(ctx, `
		UPDATE webinars
		SET organizer_id = $2, title = $3, start_date = $4, end_date = $5, seats = $6
		WHERE id = $1
	`, p.ID, p.OrganizerID, p.Title, pgTime(p.StartDate), pgTime(p.EndDate), p.Seats)
	if err != nil {
		return fmt.Errorf("update webinar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWebinarNotFound
	}
	return nil
}

// pgTime normalises t to what timestamptz can hold: UTC, microsecond precision.
func pgTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
