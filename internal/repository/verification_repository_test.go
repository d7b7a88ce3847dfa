package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerificationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func issuedStudentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "roll_number", "class_section"}).
		AddRow("s1", "Asha Rao", "asha@example.com", "R-001", "12-A")
}

func TestVerificationRepositoryVerifyAccepts(t *testing.T) {
	db, mock, cleanup := newVerificationMock(t)
	defer cleanup()
	repo := NewVerificationRepository(db)

	verifiedAt := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1 AND pass_generated = true")).
		WithArgs("s1").
		WillReturnRows(issuedStudentRows())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO pass_verifications")).
		WithArgs("pass-1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"verification_count", "last_verified_at"}).AddRow(1, verifiedAt))
	mock.ExpectCommit()

	outcome, err := repo.Verify(context.Background(), "pass-1", "s1")
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	assert.Equal(t, 1, outcome.Count)
	assert.Equal(t, verifiedAt, outcome.LastVerifiedAt)
	assert.Equal(t, "Asha Rao", outcome.Student.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryVerifyAlreadyConsumed(t *testing.T) {
	db, mock, cleanup := newVerificationMock(t)
	defer cleanup()
	repo := NewVerificationRepository(db)

	firstScan := time.Now().UTC().Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1 AND pass_generated = true")).
		WithArgs("s1").
		WillReturnRows(issuedStudentRows())
	// The guarded upsert matches nothing once the count is 1.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO pass_verifications")).
		WithArgs("pass-1", "s1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT verification_count, last_verified_at")).
		WithArgs("pass-1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"verification_count", "last_verified_at"}).AddRow(1, firstScan))
	mock.ExpectRollback()

	outcome, err := repo.Verify(context.Background(), "pass-1", "s1")
	require.NoError(t, err)

	assert.False(t, outcome.Accepted)
	assert.Equal(t, 1, outcome.Count)
	assert.Equal(t, firstScan, outcome.LastVerifiedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryVerifyUnknownStudent(t *testing.T) {
	db, mock, cleanup := newVerificationMock(t)
	defer cleanup()
	repo := NewVerificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1 AND pass_generated = true")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	outcome, err := repo.Verify(context.Background(), "pass-1", "ghost")
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryVerifyRollsBackOnWriteError(t *testing.T) {
	db, mock, cleanup := newVerificationMock(t)
	defer cleanup()
	repo := NewVerificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1 AND pass_generated = true")).
		WithArgs("s1").
		WillReturnRows(issuedStudentRows())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO pass_verifications")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	outcome, err := repo.Verify(context.Background(), "pass-1", "s1")
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}
