package repository

import (
	"context"
	"testing"
	"time"

	"dpstore/model"

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

var packageColumns = []string{"id", "title", "sku", "description", "price", "duration_days", "is_enable", "created_at", "updated_at"}

// A no-op admin PUT (same values re-submitted) yields zero affected rows
// on MySQL; the package still exists and must not turn into a 404.
func TestPackageUpdateNoopIsNotNotFound(t *testing.T) {
	gdb, mock := newMockGorm(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `packages` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `packages`").
		WillReturnRows(sqlmock.NewRows(packageColumns).
			AddRow(5, "Monthly", "plan_m1", "", 9.9, 30, true, time.Now(), time.Now()))

	repo := NewGormPackageRepository(gdb)
	err := repo.Update(context.Background(), &model.Package{
		ID: 5, Title: "Monthly", SKU: "plan_m1", Price: 9.9, DurationDays: 30, IsEnable: true,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageUpdateMissingRowIsNotFound(t *testing.T) {
	gdb, mock := newMockGorm(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `packages` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `packages`").
		WillReturnRows(sqlmock.NewRows(packageColumns))

	repo := NewGormPackageRepository(gdb)
	err := repo.Update(context.Background(), &model.Package{
		ID: 99, Title: "Ghost", SKU: "plan_x1", DurationDays: 30,
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
