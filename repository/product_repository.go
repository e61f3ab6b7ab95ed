package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dpstore/model"
)

// ProductRepository defines the interface for products and their files.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product, categoryIDs []int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	ListEnabled(ctx context.Context, categoryID int64) ([]*model.Product, error)
	ListAll(ctx context.Context) ([]*model.Product, error)
	Update(ctx context.Context, product *model.Product, categoryIDs []int64) error
	Delete(ctx context.Context, id int64) error

	AddFile(ctx context.Context, file *model.File) (int64, error)
	GetFileByID(ctx context.Context, id int64) (*model.File, error)
	DeleteFile(ctx context.Context, id int64) error
}

// mysqlProductRepository implements ProductRepository for MySQL.
type mysqlProductRepository struct {
	db *sql.DB
}

// NewMySQLProductRepository creates a new mysqlProductRepository.
func NewMySQLProductRepository(db *sql.DB) ProductRepository {
	return &mysqlProductRepository{db: db}
}

// Create inserts a product and its category links in one transaction.
func (r *mysqlProductRepository) Create(ctx context.Context, product *model.Product, categoryIDs []int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO products (title, is_enable) VALUES (?, ?)",
		product.Title, product.IsEnable)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for product: %w", err)
	}

	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO product_categories (product_id, category_id) VALUES (?, ?)", id, categoryID); err != nil {
			return 0, fmt.Errorf("failed to link product %d to category %d: %w", id, categoryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return id, nil
}

// GetByID retrieves a product with its categories and enabled files.
func (r *mysqlProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, title, is_enable, created_at, updated_at FROM products WHERE id = ?", id)

	p := &model.Product{}
	err := row.Scan(&p.ID, &p.Title, &p.IsEnable, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Product not found
		}
		return nil, fmt.Errorf("failed to scan product row for ID %d: %w", id, err)
	}

	if p.Categories, err = r.categoriesOf(ctx, id); err != nil {
		return nil, err
	}
	if p.Files, err = r.enabledFilesOf(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *mysqlProductRepository) categoriesOf(ctx context.Context, productID int64) ([]model.Category, error) {
	query := `SELECT c.id, c.parent_id, c.title, c.description, c.avatar, c.is_enable, c.created_at, c.updated_at
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = ?
		ORDER BY c.id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories of product %d: %w", productID, err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Title, &c.Description, &c.Avatar, &c.IsEnable, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *mysqlProductRepository) enabledFilesOf(ctx context.Context, productID int64) ([]model.File, error) {
	query := `SELECT id, product_id, title, file_type, file_path, is_enable, created_at
		FROM files WHERE product_id = ? AND is_enable = TRUE ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files of product %d: %w", productID, err)
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.ProductID, &f.Title, &f.FileType, &f.FilePath, &f.IsEnable, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *mysqlProductRepository) listProducts(ctx context.Context, query string, args ...interface{}) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p := &model.Product{}
		if err := rows.Scan(&p.ID, &p.Title, &p.IsEnable, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Listings include category links but not file rows; files are loaded
	// on the detail view only.
	for _, p := range products {
		if p.Categories, err = r.categoriesOf(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// ListEnabled returns enabled products, optionally restricted to a category
// (categoryID <= 0 means all).
func (r *mysqlProductRepository) ListEnabled(ctx context.Context, categoryID int64) ([]*model.Product, error) {
	if categoryID > 0 {
		query := `SELECT p.id, p.title, p.is_enable, p.created_at, p.updated_at
			FROM products p
			JOIN product_categories pc ON pc.product_id = p.id
			WHERE p.is_enable = TRUE AND pc.category_id = ?
			ORDER BY p.created_at DESC`
		return r.listProducts(ctx, query, categoryID)
	}
	return r.listProducts(ctx,
		"SELECT id, title, is_enable, created_at, updated_at FROM products WHERE is_enable = TRUE ORDER BY created_at DESC")
}

// ListAll returns every product including disabled ones (admin view).
func (r *mysqlProductRepository) ListAll(ctx context.Context) ([]*model.Product, error) {
	return r.listProducts(ctx,
		"SELECT id, title, is_enable, created_at, updated_at FROM products ORDER BY created_at DESC")
}

// Update rewrites a product row and replaces its category links.
func (r *mysqlProductRepository) Update(ctx context.Context, product *model.Product, categoryIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE products SET title = ?, is_enable = ? WHERE id = ?",
		product.Title, product.IsEnable, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", product.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates, so
		// confirm existence before reporting not found.
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE id = ?", product.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product %d existence: %w", product.ID, err)
		}
		if exists == 0 {
			return ErrNotFound
		}
	}

	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM product_categories WHERE product_id = ?", product.ID); err != nil {
			return fmt.Errorf("failed to clear category links of product %d: %w", product.ID, err)
		}
		for _, categoryID := range categoryIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO product_categories (product_id, category_id) VALUES (?, ?)", product.ID, categoryID); err != nil {
				return fmt.Errorf("failed to link product %d to category %d: %w", product.ID, categoryID, err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes a product; file rows and category links cascade.
func (r *mysqlProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFile attaches a file row to a product.
func (r *mysqlProductRepository) AddFile(ctx context.Context, file *model.File) (int64, error) {
	query := "INSERT INTO files (product_id, title, file_type, file_path, is_enable) VALUES (?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, query,
		file.ProductID, file.Title, file.FileType, file.FilePath, file.IsEnable)
	if err != nil {
		return 0, fmt.Errorf("failed to insert file for product %d: %w", file.ProductID, err)
	}
	return res.LastInsertId()
}

// GetFileByID retrieves a file row.
func (r *mysqlProductRepository) GetFileByID(ctx context.Context, id int64) (*model.File, error) {
	query := "SELECT id, product_id, title, file_type, file_path, is_enable, created_at FROM files WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)

	f := &model.File{}
	err := row.Scan(&f.ID, &f.ProductID, &f.Title, &f.FileType, &f.FilePath, &f.IsEnable, &f.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // File not found
		}
		return nil, fmt.Errorf("failed to scan file row for ID %d: %w", id, err)
	}
	return f, nil
}

// DeleteFile removes a file row.
func (r *mysqlProductRepository) DeleteFile(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete file %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
