package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dpstore/model"
)

// CategoryRepository defines the interface for catalog categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	ListEnabled(ctx context.Context) ([]*model.Category, error)
	ListAll(ctx context.Context) ([]*model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) error
}

const categoryColumns = "id, parent_id, title, description, avatar, is_enable, created_at, updated_at"

// mysqlCategoryRepository implements CategoryRepository for MySQL.
type mysqlCategoryRepository struct {
	db *sql.DB
}

// NewMySQLCategoryRepository creates a new mysqlCategoryRepository.
func NewMySQLCategoryRepository(db *sql.DB) CategoryRepository {
	return &mysqlCategoryRepository{db: db}
}

// Create inserts a new category.
func (r *mysqlCategoryRepository) Create(ctx context.Context, category *model.Category) (int64, error) {
	query := "INSERT INTO categories (parent_id, title, description, avatar, is_enable) VALUES (?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, query,
		category.ParentID, category.Title, category.Description, category.Avatar, category.IsEnable)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}
	return res.LastInsertId()
}

// GetByID retrieves a category by its ID.
func (r *mysqlCategoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)

	c := &model.Category{}
	err := row.Scan(&c.ID, &c.ParentID, &c.Title, &c.Description, &c.Avatar, &c.IsEnable, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Category not found
		}
		return nil, fmt.Errorf("failed to scan category row for ID %d: %w", id, err)
	}
	return c, nil
}

func (r *mysqlCategoryRepository) list(ctx context.Context, query string) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Title, &c.Description, &c.Avatar, &c.IsEnable, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListEnabled returns all enabled categories. Tree assembly (parent links)
// is left to the caller; parents come before children by id ordering only
// when inserted that way, so callers should not rely on it.
func (r *mysqlCategoryRepository) ListEnabled(ctx context.Context) ([]*model.Category, error) {
	return r.list(ctx, "SELECT "+categoryColumns+" FROM categories WHERE is_enable = TRUE ORDER BY id")
}

// ListAll returns every category including disabled ones (admin view).
func (r *mysqlCategoryRepository) ListAll(ctx context.Context) ([]*model.Category, error) {
	return r.list(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY id")
}

// Update rewrites a category row.
func (r *mysqlCategoryRepository) Update(ctx context.Context, category *model.Category) error {
	query := "UPDATE categories SET parent_id = ?, title = ?, description = ?, avatar = ?, is_enable = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query,
		category.ParentID, category.Title, category.Description, category.Avatar, category.IsEnable, category.ID)
	if err != nil {
		return fmt.Errorf("failed to update category %d: %w", category.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates, so
		// confirm existence before reporting not found.
		var exists int
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories WHERE id = ?", category.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check category %d existence: %w", category.ID, err)
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a category; children cascade via the FK.
func (r *mysqlCategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
