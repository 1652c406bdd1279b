// Package postgres persists applications via a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"investgate/internal/application/models"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
)

const uniqueViolationCode = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectColumns = `id, owner_id, title, sector, investment_amount, description, status, review_note, created_at, updated_at`

func (s *Store) Create(ctx context.Context, app *models.Application) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO applications (id, owner_id, title, sector, investment_amount, description, status, review_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(app.ID),
		uuid.UUID(app.OwnerID),
		app.Title,
		app.Sector,
		app.InvestmentAmount,
		app.Description,
		app.Status.String(),
		app.ReviewNote,
		app.CreatedAt.UTC(),
		app.UpdatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.ApplicationID) (*models.Application, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM applications WHERE id = $1`, uuid.UUID(id))
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select application: %w", err)
	}
	return app, nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*models.Application, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM applications WHERE owner_id = $1 ORDER BY created_at DESC`, uuid.UUID(ownerID))
}

func (s *Store) List(ctx context.Context) ([]*models.Application, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM applications ORDER BY created_at DESC`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, app *models.Application) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE applications
		SET title = $2, sector = $3, investment_amount = $4, description = $5, status = $6, review_note = $7, updated_at = $8
		WHERE id = $1
	`,
		uuid.UUID(app.ID),
		app.Title,
		app.Sector,
		app.InvestmentAmount,
		app.Description,
		app.Status.String(),
		app.ReviewNote,
		app.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var (
		app     models.Application
		id      uuid.UUID
		ownerID uuid.UUID
		status  string
	)
	if err := row.Scan(&id, &ownerID, &app.Title, &app.Sector, &app.InvestmentAmount,
		&app.Description, &status, &app.ReviewNote, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	app.ID = domain.ApplicationID(id)
	app.OwnerID = domain.UserID(ownerID)
	app.Status = models.Status(status)
	return &app, nil
}
