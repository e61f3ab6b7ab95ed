package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrDuplicateUser is returned when a username, email or phone collides
	// with an existing account.
	ErrDuplicateUser = errors.New("username, email or phone already exists")

	// ErrDuplicateEntry is returned for unique-key collisions outside the
	// users table.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// isDuplicateKeyError reports whether err is a MySQL duplicate-key error (1062).
func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
