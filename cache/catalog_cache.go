package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dpstore/model"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the client used by the cache helpers. Set it once at
// startup via Init; a nil client turns every helper into a no-op miss.
var RedisClient *redis.Client

const (
	enabledPackagesKey   = "packages:enabled"
	enabledCategoriesKey = "categories:enabled"

	catalogTTL = 5 * time.Minute
)

// Init wires the cache package to a Redis client.
func Init(client *redis.Client) {
	RedisClient = client
}

// GetEnabledPackages returns the cached enabled-package listing, or
// (nil, nil) on a cache miss.
func GetEnabledPackages(ctx context.Context) ([]*model.Package, error) {
	if RedisClient == nil {
		return nil, nil
	}

	data, err := RedisClient.Get(ctx, enabledPackagesKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached packages: %w", err)
	}

	var packages []*model.Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached packages: %w", err)
	}
	return packages, nil
}

// SetEnabledPackages caches the enabled-package listing.
func SetEnabledPackages(ctx context.Context, packages []*model.Package) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(packages)
	if err != nil {
		return fmt.Errorf("failed to marshal packages: %w", err)
	}
	return RedisClient.Set(ctx, enabledPackagesKey, data, catalogTTL).Err()
}

// InvalidatePackages drops the cached package listing after admin writes.
func InvalidatePackages(ctx context.Context) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(ctx, enabledPackagesKey).Err()
}

// GetEnabledCategories returns the cached category listing, or (nil, nil)
// on a cache miss.
func GetEnabledCategories(ctx context.Context) ([]*model.Category, error) {
	if RedisClient == nil {
		return nil, nil
	}

	data, err := RedisClient.Get(ctx, enabledCategoriesKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached categories: %w", err)
	}

	var categories []*model.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached categories: %w", err)
	}
	return categories, nil
}

// SetEnabledCategories caches the category listing.
func SetEnabledCategories(ctx context.Context, categories []*model.Category) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	return RedisClient.Set(ctx, enabledCategoriesKey, data, catalogTTL).Err()
}

// InvalidateCategories drops the cached category listing after admin writes.
func InvalidateCategories(ctx context.Context) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(ctx, enabledCategoriesKey).Err()
}
