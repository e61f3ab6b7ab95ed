package repository

import (
	"context"
	"testing"

	"dpstore/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MySQL reports zero affected rows when an UPDATE changes no values, so a
// re-submitted category must not be reported as missing.
func TestCategoryUpdateNoopIsNotNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE categories SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewMySQLCategoryRepository(db)
	err = repo.Update(context.Background(), &model.Category{ID: 5, Title: "Books", IsEnable: true})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryUpdateMissingRowIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE categories SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	repo := NewMySQLCategoryRepository(db)
	err = repo.Update(context.Background(), &model.Category{ID: 99, Title: "Ghost"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryUpdateChangedRowSkipsExistenceCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE categories SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMySQLCategoryRepository(db)
	err = repo.Update(context.Background(), &model.Category{ID: 5, Title: "Books"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
