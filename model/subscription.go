package model

import "time"

// Package is a purchasable subscription plan definition.
// The subscriptions module runs on GORM, so these carry gorm tags.
type Package struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"size:100;not null"`
	SKU          string    `json:"sku" gorm:"size:20;uniqueIndex;not null"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price" gorm:"not null"`
	DurationDays int       `json:"durationDays" gorm:"not null"`
	IsEnable     bool      `json:"isEnable" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName overrides the GORM table name.
func (Package) TableName() string {
	return "packages"
}

// Subscription ties a user to a purchased package with an expiry timestamp.
// A subscription is an active entitlement while ExpireAt is in the future.
type Subscription struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"userId" gorm:"not null;index"`
	PackageID int64     `json:"packageId" gorm:"not null;index"`
	ExpireAt  time.Time `json:"expireAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`

	Package Package `json:"package" gorm:"foreignKey:PackageID"`
}

// TableName overrides the GORM table name.
func (Subscription) TableName() string {
	return "subscriptions"
}

// Active reports whether the subscription is unexpired at the given time.
// Expiry is strict: a subscription expiring exactly at now is not active.
func (s *Subscription) Active(now time.Time) bool {
	return s.ExpireAt.After(now)
}
