package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/shop-service/internal/domain"
)

type sqliteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository returns a SQLite-backed implementation.
func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, email, password_hash, status, first_name, last_name, phone, address, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	stamp := formatTime(now)
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Status),
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Address,
		stamp,
		stamp,
	)
	if err != nil {
		return mapSQLiteWriteError(err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *sqliteUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=?`
	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteUserRepository) GetByIdentifier(ctx context.Context, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username=? OR email=? LIMIT 1`
	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, value, strings.ToLower(value)))
}

func (r *sqliteUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM users
            WHERE (?1 <> '' AND username=?1) OR (?2 <> '' AND email=?2)
        )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, strings.ToLower(email)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *sqliteUserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *sqliteUserRepository) UpdateFields(ctx context.Context, id string, patch domain.UserPatch) (int64, error) {
	assignments := userAssignments(patch)
	if len(assignments) == 0 {
		return 0, nil
	}
	assignments = append(assignments, assignment{"updated_at", formatTime(time.Now().UTC())})
	set, args := setClause(assignments, question)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE users SET %s WHERE id=?`, set), args...)
	if err != nil {
		return 0, mapSQLiteWriteError(err)
	}
	return res.RowsAffected()
}

func (r *sqliteUserRepository) DeleteByIdentifier(ctx context.Context, value string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username=? OR email=?`, value, strings.ToLower(value))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sqliteUserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (*domain.User, error) {
	var (
		user               domain.User
		status             string
		createdAt, updated string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&status,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Address,
		&createdAt,
		&updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.Status = domain.UserStatus(status)
	user.CreatedAt = parseTime(createdAt)
	user.UpdatedAt = parseTime(updated)
	return &user, nil
}

// sqliteTimeLayout is fixed width so stored timestamps sort as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// mapSQLiteWriteError turns unique and foreign key violations into sentinel errors. SQLite
// reports the violated columns rather than the constraint name.
func mapSQLiteWriteError(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	msg := sqliteErr.Error()
	if strings.Contains(msg, "FOREIGN KEY") {
		return ErrInvalidReference
	}
	if !strings.Contains(msg, "UNIQUE") {
		return err
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "users.email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "products.name"):
		return ErrDuplicateProduct
	}
	return err
}
