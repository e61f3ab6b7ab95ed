package account

import (
	"context"
	"regexp"
	"testing"
	"time"

	"dpstore/model"
	"dpstore/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryUserRepository is an in-memory UserRepository for tests. It
// enforces the same uniqueness rules as the MySQL schema.
type memoryUserRepository struct {
	nextID int64
	users  []*model.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{nextID: 1}
}

func (r *memoryUserRepository) CreateUser(_ context.Context, user *model.User) (int64, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return 0, repository.ErrDuplicateUser
		}
		if user.Email.Valid && existing.Email.Valid && existing.Email.String == user.Email.String {
			return 0, repository.ErrDuplicateUser
		}
		if user.Phone.Valid && existing.Phone.Valid && existing.Phone.String == user.Phone.String {
			return 0, repository.ErrDuplicateUser
		}
	}
	stored := *user
	stored.ID = r.nextID
	r.nextID++
	r.users = append(r.users, &stored)
	return stored.ID, nil
}

func (r *memoryUserRepository) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email.Valid && u.Email.String == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) GetUserByPhone(_ context.Context, phone string) (*model.User, error) {
	for _, u := range r.users {
		if u.Phone.Valid && u.Phone.String == phone {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) UpdateLastSeen(_ context.Context, id int64, seenAt time.Time) error {
	for _, u := range r.users {
		if u.ID == id {
			u.LastSeen.Time = seenAt
			u.LastSeen.Valid = true
			return nil
		}
	}
	return nil
}

func TestCreateUserDerivesUsernameFromEmail(t *testing.T) {
	m := NewManager(newMemoryUserRepository())

	user, err := m.CreateUser(context.Background(), CreateParams{
		Email:    "foo@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "foo", user.Username)
	assert.Equal(t, "foo@example.com", user.Email.String)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.DateJoined.IsZero())
}

func TestCreateUserDerivesUsernameFromPhone(t *testing.T) {
	m := NewManager(newMemoryUserRepository())

	user, err := m.CreateUser(context.Background(), CreateParams{
		Phone:    "9891234567890",
		Password: "pw",
	})
	require.NoError(t, err)

	// A random lowercase letter followed by the last 7 digits. The prefix
	// is re-rolled on every call, so only its character class is pinned.
	assert.Regexp(t, regexp.MustCompile(`^[a-z]4567890$`), user.Username)
}

func TestPhoneDerivedUsernameIsNotReproducible(t *testing.T) {
	// Two managers with different letter sources yield different usernames
	// for the same phone number: callers must not rely on re-derivation.
	repo := newMemoryUserRepository()
	m := NewManager(repo)
	m.randLetter = func() byte { return 'a' }

	first, err := m.CreateUser(context.Background(), CreateParams{Phone: "989123456789"})
	require.NoError(t, err)
	assert.Equal(t, "a3456789", first.Username)

	m.randLetter = func() byte { return 'z' }
	second := m.deriveUsername("", "989123456789")
	assert.Equal(t, "z3456789", second)
	assert.NotEqual(t, first.Username, second)
}

func TestCreateUserFailsWithoutAnyIdentity(t *testing.T) {
	m := NewManager(newMemoryUserRepository())

	_, err := m.CreateUser(context.Background(), CreateParams{Password: "pw"})
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestEmailNormalization(t *testing.T) {
	assert.Equal(t, "", NormalizeEmail(""))
	assert.Equal(t, "", NormalizeEmail("   "))
	assert.Equal(t, "Foo@example.com", NormalizeEmail("Foo@EXAMPLE.Com"))
	assert.Equal(t, "foo@example.com", NormalizeEmail(" foo@example.com "))
}

func TestEmptyEmailStoredAsAbsent(t *testing.T) {
	repo := newMemoryUserRepository()
	m := NewManager(repo)

	user, err := m.CreateUser(context.Background(), CreateParams{
		Username: "alice",
		Email:    "   ",
		Phone:    "989123456789",
	})
	require.NoError(t, err)
	assert.False(t, user.Email.Valid, "blank email must normalize to NULL, not empty string")

	stored, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Email.Valid)
}

func TestNoPasswordAccountHasUnusablePassword(t *testing.T) {
	m := NewManager(newMemoryUserRepository())

	user, err := m.CreateUser(context.Background(), CreateParams{
		Phone:      "989123456789",
		NoPassword: true,
	})
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
}

func TestCreateSuperuser(t *testing.T) {
	m := NewManager(newMemoryUserRepository())

	user, err := m.CreateSuperuser(context.Background(), CreateParams{
		Username: "root",
		Email:    "root@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)

	// Superuser creation does not derive usernames.
	_, err = m.CreateSuperuser(context.Background(), CreateParams{Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestCreateUserDuplicate(t *testing.T) {
	m := NewManager(newMemoryUserRepository())

	_, err := m.CreateUser(context.Background(), CreateParams{Email: "foo@example.com"})
	require.NoError(t, err)

	_, err = m.CreateUser(context.Background(), CreateParams{Email: "foo@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUser)
}

func TestGetByPhone(t *testing.T) {
	m := NewManager(newMemoryUserRepository())

	created, err := m.CreateUser(context.Background(), CreateParams{Phone: "989123456789"})
	require.NoError(t, err)

	found, err := m.GetByPhone(context.Background(), "989123456789")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = m.GetByPhone(context.Background(), "989999999999")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
