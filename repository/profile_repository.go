package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dpstore/model"
)

// ProfileRepository defines the interface for profile and province data.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.UserProfile, error)
	Upsert(ctx context.Context, profile *model.UserProfile) error
	ListValidProvinces(ctx context.Context) ([]*model.Province, error)
}

// mysqlProfileRepository implements ProfileRepository for MySQL.
type mysqlProfileRepository struct {
	db *sql.DB
}

// NewMySQLProfileRepository creates a new mysqlProfileRepository.
func NewMySQLProfileRepository(db *sql.DB) ProfileRepository {
	return &mysqlProfileRepository{db: db}
}

// GetByUserID retrieves the profile belonging to a user.
func (r *mysqlProfileRepository) GetByUserID(ctx context.Context, userID int64) (*model.UserProfile, error) {
	query := "SELECT id, user_id, nick_name, birthday, avatar, province_id FROM user_profiles WHERE user_id = ?"
	row := r.db.QueryRowContext(ctx, query, userID)

	profile := &model.UserProfile{}
	err := row.Scan(&profile.ID, &profile.UserID, &profile.NickName, &profile.Birthday, &profile.Avatar, &profile.ProvinceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Profile not created yet
		}
		return nil, fmt.Errorf("failed to scan profile row for user %d: %w", userID, err)
	}
	return profile, nil
}

// Upsert creates the user's profile row or updates it in place.
func (r *mysqlProfileRepository) Upsert(ctx context.Context, profile *model.UserProfile) error {
	query := `INSERT INTO user_profiles (user_id, nick_name, birthday, avatar, province_id)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE nick_name = VALUES(nick_name), birthday = VALUES(birthday),
			avatar = VALUES(avatar), province_id = VALUES(province_id)`

	_, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.NickName, profile.Birthday, profile.Avatar, profile.ProvinceID)
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %d: %w", profile.UserID, err)
	}
	return nil
}

// ListValidProvinces returns all provinces flagged valid.
func (r *mysqlProfileRepository) ListValidProvinces(ctx context.Context) ([]*model.Province, error) {
	query := "SELECT id, name, is_valid, modified_at, created_at FROM provinces WHERE is_valid = TRUE ORDER BY name"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query provinces: %w", err)
	}
	defer rows.Close()

	var provinces []*model.Province
	for rows.Next() {
		p := &model.Province{}
		if err := rows.Scan(&p.ID, &p.Name, &p.IsValid, &p.ModifiedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan province row: %w", err)
		}
		provinces = append(provinces, p)
	}
	return provinces, rows.Err()
}
