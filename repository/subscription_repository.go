package repository

import (
	"context"
	"errors"
	"time"

	"dpstore/model"

	"gorm.io/gorm"
)

// PackageRepository defines the interface for subscription plan definitions.
type PackageRepository interface {
	Create(ctx context.Context, pkg *model.Package) error
	GetByID(ctx context.Context, id int64) (*model.Package, error)
	ListEnabled(ctx context.Context) ([]*model.Package, error)
	ListAll(ctx context.Context) ([]*model.Package, error)
	Update(ctx context.Context, pkg *model.Package) error
	Delete(ctx context.Context, id int64) error
}

// SubscriptionRepository defines the interface for user subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	// ListActiveByUser returns the user's subscriptions whose expiry is
	// strictly after now.
	ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]*model.Subscription, error)
}

// gormPackageRepository implements PackageRepository with GORM.
type gormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new gormPackageRepository.
func NewGormPackageRepository(db *gorm.DB) PackageRepository {
	return &gormPackageRepository{db: db}
}

func (r *gormPackageRepository) Create(ctx context.Context, pkg *model.Package) error {
	err := r.db.WithContext(ctx).Create(pkg).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEntry
	}
	return err
}

func (r *gormPackageRepository) GetByID(ctx context.Context, id int64) (*model.Package, error) {
	var pkg model.Package
	err := r.db.WithContext(ctx).First(&pkg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Package not found
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *gormPackageRepository) ListEnabled(ctx context.Context) ([]*model.Package, error) {
	var packages []*model.Package
	err := r.db.WithContext(ctx).Where("is_enable = ?", true).Order("id").Find(&packages).Error
	return packages, err
}

func (r *gormPackageRepository) ListAll(ctx context.Context) ([]*model.Package, error) {
	var packages []*model.Package
	err := r.db.WithContext(ctx).Order("id").Find(&packages).Error
	return packages, err
}

func (r *gormPackageRepository) Update(ctx context.Context, pkg *model.Package) error {
	res := r.db.WithContext(ctx).Model(&model.Package{ID: pkg.ID}).Updates(map[string]interface{}{
		"title":         pkg.Title,
		"sku":           pkg.SKU,
		"description":   pkg.Description,
		"price":         pkg.Price,
		"duration_days": pkg.DurationDays,
		"is_enable":     pkg.IsEnable,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates, so
		// confirm existence before reporting not found.
		existing, err := r.GetByID(ctx, pkg.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
	}
	return nil
}

func (r *gormPackageRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Package{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// gormSubscriptionRepository implements SubscriptionRepository with GORM.
type gormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new gormSubscriptionRepository.
func NewGormSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &gormSubscriptionRepository{db: db}
}

func (r *gormSubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	// The Package association is read-only here; only the FK is written.
	return r.db.WithContext(ctx).Omit("Package").Create(sub).Error
}

func (r *gormSubscriptionRepository) ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Preload("Package").
		Where("user_id = ? AND expire_at > ?", userID, now).
		Order("expire_at").
		Find(&subs).Error
	return subs, err
}
