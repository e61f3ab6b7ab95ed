package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestEnsureSubscriptionConstraintsAddsMissingFK(t *testing.T) {
	gdb, mock := newMockGorm(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.TABLE_CONSTRAINTS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("ALTER TABLE subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, ensureSubscriptionConstraints(gdb))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSubscriptionConstraintsIdempotent(t *testing.T) {
	gdb, mock := newMockGorm(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.TABLE_CONSTRAINTS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assert.NoError(t, ensureSubscriptionConstraints(gdb))
	assert.NoError(t, mock.ExpectationsWereMet())
}
