// Package account provisions user accounts: it derives a canonical
// username from optional email or phone input, normalizes the identity
// fields and persists the record.
package account

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"time"

	"dpstore/core/auth"
	"dpstore/model"
	"dpstore/repository"
)

var (
	// ErrUsernameRequired is returned when no username was given and none
	// could be derived from email or phone.
	ErrUsernameRequired = errors.New("the given username must be set")

	// ErrUserNotFound is returned by lookups that matched no account.
	ErrUserNotFound = errors.New("user not found")
)

// CreateParams carries account creation input. Username, Email, Phone and
// Password are all optional, but the username must be derivable from one
// of them. Recognized extra options are explicit fields, not a bag.
type CreateParams struct {
	Username  string
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string

	// NoPassword creates the account without a usable password, for
	// accounts that authenticate by one-time phone codes only.
	NoPassword bool
}

// Manager creates and looks up accounts over the user repository.
type Manager struct {
	users repository.UserRepository

	now        func() time.Time
	randLetter func() byte
}

// NewManager creates an account manager.
func NewManager(users repository.UserRepository) *Manager {
	return &Manager{
		users:      users,
		now:        time.Now,
		randLetter: func() byte { return byte('a' + rand.Intn(26)) },
	}
}

// NormalizeEmail trims the address and lowercases its domain portion.
// A blank address normalizes to the empty string (stored as NULL).
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// deriveUsername picks a username when none was given: the email local
// part, or a random lowercase letter followed by the last 7 digits of the
// phone number. The phone-derived form is NOT stable across calls.
func (m *Manager) deriveUsername(email, phone string) string {
	if email != "" {
		return strings.SplitN(email, "@", 2)[0]
	}
	if phone != "" {
		suffix := phone
		if len(suffix) > 7 {
			suffix = suffix[len(suffix)-7:]
		}
		return string(m.randLetter()) + suffix
	}
	return ""
}

// CreateUser creates a regular account, deriving the username when absent.
func (m *Manager) CreateUser(ctx context.Context, p CreateParams) (*model.User, error) {
	if p.Username == "" {
		p.Username = m.deriveUsername(NormalizeEmail(p.Email), p.Phone)
	}
	return m.create(ctx, p, false, false)
}

// CreateSuperuser creates a staff + superuser account. The username is
// required; no derivation is applied.
func (m *Manager) CreateSuperuser(ctx context.Context, p CreateParams) (*model.User, error) {
	return m.create(ctx, p, true, true)
}

func (m *Manager) create(ctx context.Context, p CreateParams, isStaff, isSuperuser bool) (*model.User, error) {
	if p.Username == "" {
		return nil, ErrUsernameRequired
	}

	user := &model.User{
		Username:    p.Username,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		IsStaff:     isStaff,
		IsSuperuser: isSuperuser,
		IsActive:    true,
		DateJoined:  m.now(),
	}

	// Empty-string email is normalized to absent, never stored as "".
	if email := NormalizeEmail(p.Email); email != "" {
		user.Email = sql.NullString{String: email, Valid: true}
	}
	if p.Phone != "" {
		user.Phone = sql.NullString{String: p.Phone, Valid: true}
	}

	if !p.NoPassword {
		hash, err := auth.HashPassword(p.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	id, err := m.users.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// GetByPhone looks an account up by exact phone match.
func (m *Manager) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	user, err := m.users.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
