package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dpstore/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	UpdateLastSeen(ctx context.Context, id int64, seenAt time.Time) error
}

const userColumns = "id, username, first_name, last_name, email, phone, password_hash, is_staff, is_superuser, is_active, date_joined, last_seen"

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := `INSERT INTO users (username, first_name, last_name, email, phone, password_hash, is_staff, is_superuser, is_active, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.IsStaff,
		user.IsSuperuser,
		user.IsActive,
		user.DateJoined,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

func (r *mysqlUserRepository) scanUser(row *sql.Row, what string) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName,
		&user.Email, &user.Phone, &user.PasswordHash,
		&user.IsStaff, &user.IsSuperuser, &user.IsActive,
		&user.DateJoined, &user.LastSeen)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for %s: %w", what, err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, id), fmt.Sprintf("ID %d", id))
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, username), "username "+username)
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, email), "email "+email)
}

// GetUserByPhone retrieves a user by exact match on the phone field.
func (r *mysqlUserRepository) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE phone = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, phone), "phone "+phone)
}

// UpdateLastSeen stamps the user's last-seen time.
func (r *mysqlUserRepository) UpdateLastSeen(ctx context.Context, id int64, seenAt time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_seen = ? WHERE id = ?", seenAt, id)
	if err != nil {
		return fmt.Errorf("failed to update last_seen for user %d: %w", id, err)
	}
	return nil
}
