package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/shop-service/internal/domain"
)

// UserRepository is the credential store. Uniqueness of username and email is
// enforced by the storage layer; Create reports violations as
// ErrDuplicateUsername or ErrDuplicateEmail.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier matches either the username or the email.
	GetByIdentifier(ctx context.Context, value string) (*domain.User, error)
	// Exists reports whether any user has the given username or email. Empty
	// arguments are ignored.
	Exists(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateFields(ctx context.Context, id string, patch domain.UserPatch) (int64, error)
	DeleteByIdentifier(ctx context.Context, value string) (int64, error)
	Ping(ctx context.Context) error
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const userColumns = `id, username, email, password_hash, status, first_name, last_name, phone, address, created_at, updated_at`

// PgxPool is the part of *pgxpool.Pool the Postgres repositories use.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type userRepository struct {
	pool PgxPool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool PgxPool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, email, password_hash, status, first_name, last_name, phone, address)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Status,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Address,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapPgWriteError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanPgUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByIdentifier(ctx context.Context, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username=$1 OR email=$2 LIMIT 1`
	return scanPgUser(r.pool.QueryRow(ctx, query, value, strings.ToLower(value)))
}

func (r *userRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM users
            WHERE ($1 <> '' AND username=$1) OR ($2 <> '' AND email=$2)
        )`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username, strings.ToLower(email)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, username`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanPgUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) UpdateFields(ctx context.Context, id string, patch domain.UserPatch) (int64, error) {
	assignments := userAssignments(patch)
	if len(assignments) == 0 {
		return 0, nil
	}
	set, args := setClause(assignments, dollar)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at=NOW() WHERE id=$%d`, set, len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgWriteError(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *userRepository) DeleteByIdentifier(ctx context.Context, value string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE username=$1 OR email=$2`, value, strings.ToLower(value))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *userRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return r.pool.Ping(ctx)
}

func scanPgUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Status,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func userAssignments(patch domain.UserPatch) []assignment {
	var out []assignment
	if patch.Username != nil {
		out = append(out, assignment{"username", *patch.Username})
	}
	if patch.Email != nil {
		out = append(out, assignment{"email", strings.ToLower(*patch.Email)})
	}
	if patch.PasswordHash != nil {
		out = append(out, assignment{"password_hash", *patch.PasswordHash})
	}
	if patch.Status != nil {
		out = append(out, assignment{"status", string(*patch.Status)})
	}
	if patch.FirstName != nil {
		out = append(out, assignment{"first_name", *patch.FirstName})
	}
	if patch.LastName != nil {
		out = append(out, assignment{"last_name", *patch.LastName})
	}
	if patch.Phone != nil {
		out = append(out, assignment{"phone", *patch.Phone})
	}
	if patch.Address != nil {
		out = append(out, assignment{"address", *patch.Address})
	}
	return out
}

// mapPgWriteError turns unique and foreign key violations into sentinel errors.
func mapPgWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code == pgForeignKeyViolation {
		return ErrInvalidReference
	}
	if pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUsername:
			return ErrDuplicateUsername
		case constraintEmail:
			return ErrDuplicateEmail
		case constraintProductName:
			return ErrDuplicateProduct
		}
	}
	return err
}
