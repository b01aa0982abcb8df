package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOperatorMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOperatorRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newOperatorMock(t)
	defer cleanup()
	repo := NewOperatorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "password_hash", "active", "created_at", "updated_at"}).
		AddRow("op-1", "admin@x.com", "Admin", "$2a$10$hash", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, full_name, password_hash, active, created_at, updated_at\n        FROM operators WHERE email = $1")).
		WithArgs("admin@x.com").
		WillReturnRows(rows)

	operator, err := repo.FindByEmail(context.Background(), "admin@x.com")
	require.NoError(t, err)
	assert.Equal(t, "op-1", operator.ID)
	assert.True(t, operator.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepositoryFindByEmailMissing(t *testing.T) {
	db, mock, cleanup := newOperatorMock(t)
	defer cleanup()
	repo := NewOperatorRepository(db)

	mock.ExpectQuery("SELECT id, email").
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
