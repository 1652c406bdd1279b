package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"investgate/internal/auth/models"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
)

const uniqueViolationCode = "23505"

// PostgresStore persists users via a pgx pool. Concurrency control is
// delegated to the database; the store itself holds no state.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(user.ID),
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role.String(),
		user.IsActive,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `WHERE email = lower($1)`, email)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role, is_active, created_at, updated_at
		FROM users `+where, arg)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, name, password_hash, role, is_active, created_at, updated_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, user *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, role = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`,
		uuid.UUID(user.ID),
		user.Name,
		user.Role.String(),
		user.IsActive,
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		id   uuid.UUID
		role string
	)
	if err := row.Scan(&id, &u.Email, &u.Name, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = domain.UserID(id)
	u.Role = domain.Role(role)
	return &u, nil
}
