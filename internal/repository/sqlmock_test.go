package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-service/internal/domain"
)

func TestSQLiteUserRepository_PropagatesDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteUserRepository(db)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=?`)).
		WithArgs("id-1").
		WillReturnError(boom)
	_, err = repo.GetByID(context.Background(), "id-1")
	require.ErrorIs(t, err, boom)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(boom)
	err = repo.Create(context.Background(), &domain.User{ID: "id-2", Username: "u", Email: "e@x.com"})
	require.ErrorIs(t, err, boom)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY created_at`)).WillReturnError(boom)
	_, err = repo.List(context.Background())
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteUserRepository_UpdateBuildsPartialStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteUserRepository(db)
	hash := "$2a$04$new"
	phone := "555-0199"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash=?, phone=?, updated_at=? WHERE id=?`)).
		WithArgs(hash, phone, sqlmock.AnyArg(), "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateFields(context.Background(), "id-1", domain.UserPatch{PasswordHash: &hash, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteUserRepository_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow("only-one-column")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username=? OR email=?`)).
		WithArgs("alice", "alice").
		WillReturnRows(rows)

	_, err = NewSQLiteUserRepository(db).GetByIdentifier(context.Background(), "alice")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestSetClause(t *testing.T) {
	set, args := setClause([]assignment{{"a", 1}, {"b", "x"}}, dollar)
	assert.Equal(t, "a=$1, b=$2", set)
	assert.Equal(t, []any{1, "x"}, args)

	set, _ = setClause([]assignment{{"a", 1}, {"b", "x"}}, question)
	assert.Equal(t, "a=?, b=?", set)
}
