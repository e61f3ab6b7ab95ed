package model

import (
	"database/sql"
	"strings"
	"time"
)

// User is the login principal. Username is the immutable identity key;
// email and phone are optional but unique when present.
type User struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	FirstName    string         `json:"firstName,omitempty"`
	LastName     string         `json:"lastName,omitempty"`
	Email        sql.NullString `json:"-"`
	Phone        sql.NullString `json:"-"`
	PasswordHash string         `json:"-"` // Not exposed in API responses
	IsStaff      bool           `json:"isStaff"`
	IsSuperuser  bool           `json:"-"`
	IsActive     bool           `json:"isActive"`
	DateJoined   time.Time      `json:"dateJoined"`
	LastSeen     sql.NullTime   `json:"-"`
}

// FullName returns "first last" with surrounding spaces trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ShortName returns the first name.
func (u *User) ShortName() string {
	return u.FirstName
}

// HasLoginIdentity reports whether the account has at least one usable
// login identity (email or phone).
func (u *User) HasLoginIdentity() bool {
	return u.Email.Valid || u.Phone.Valid
}

// UserProfile is the one-to-one profile record of a User.
type UserProfile struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"userId"`
	NickName   string         `json:"nickName,omitempty"`
	Birthday   sql.NullTime   `json:"-"`
	Avatar     sql.NullString `json:"-"` // object storage key
	ProvinceID sql.NullInt64  `json:"-"`
}

// DisplayName returns the nickname, falling back to the user's first name
// when the nickname is blank.
func (p *UserProfile) DisplayName(u *User) string {
	if p.NickName != "" {
		return p.NickName
	}
	return u.FirstName
}

// DeviceType enumerates the client platforms a device record can carry.
type DeviceType int

const (
	DeviceWeb     DeviceType = 1
	DeviceIOS     DeviceType = 2
	DeviceAndroid DeviceType = 3
)

// String returns the wire name of the device type.
func (t DeviceType) String() string {
	switch t {
	case DeviceIOS:
		return "ios"
	case DeviceAndroid:
		return "android"
	default:
		return "web"
	}
}

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	return t == DeviceWeb || t == DeviceIOS || t == DeviceAndroid
}

// Device records a client installation of a user; many per account.
type Device struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"userId"`
	DeviceUUID  sql.NullString `json:"-"`
	LastLogin   sql.NullTime   `json:"-"`
	DeviceType  DeviceType     `json:"deviceType"`
	DeviceOS    string         `json:"deviceOs,omitempty"`
	DeviceModel string         `json:"deviceModel,omitempty"`
	AppVersion  string         `json:"appVersion,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Province is a reference entity pointed to by profiles.
type Province struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	IsValid    bool      `json:"isValid"`
	ModifiedAt time.Time `json:"modifiedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}
