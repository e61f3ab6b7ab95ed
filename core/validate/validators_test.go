package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneNumberValidator(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"mobile 90 prefix", "989012345678", true},
		{"mobile 93 prefix", "989312345678", true},
		{"mobile 99 prefix", "989912345678", true},
		{"landline style", "982112345678", true},
		{"zero after prefix rejected", "980123456789", false},
		{"too short", "98901234567", false},
		{"too long", "9890123456789", false},
		{"wrong country prefix", "979012345678", false},
		{"letters", "98901234567a", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PhoneNumber.Validate(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSKUValidator(t *testing.T) {
	assert.NoError(t, SKU.Validate("abc123"))
	assert.NoError(t, SKU.Validate("ABC_def_99"))
	assert.NoError(t, SKU.Validate(strings.Repeat("a", 20)))

	assert.Error(t, SKU.Validate("abc12"))                    // too short
	assert.Error(t, SKU.Validate(strings.Repeat("a", 21)))    // too long
	assert.Error(t, SKU.Validate("abc-123"))                  // dash not allowed
	assert.Error(t, SKU.Validate("abc 123"))                  // space not allowed
}

func TestUsernameValidator(t *testing.T) {
	assert.NoError(t, Username.Validate("alice"))
	assert.NoError(t, Username.Validate("a1_b.c"))

	assert.Error(t, Username.Validate("1alice")) // must start with a letter
	assert.Error(t, Username.Validate("_alice"))
	assert.Error(t, Username.Validate("a"))       // needs at least two chars
	assert.Error(t, Username.Validate("al ice"))
}

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, Email.Validate("foo@example.com"))
	assert.NoError(t, Email.Validate("first.last+tag@sub.example.org"))

	assert.Error(t, Email.Validate("foo"))
	assert.Error(t, Email.Validate("foo@"))
	assert.Error(t, Email.Validate("@example.com"))
	assert.Error(t, Email.Validate("foo@example"))   // no dotted domain
	assert.Error(t, Email.Validate("f oo@example.com"))
	assert.Error(t, Email.Validate("foo@exa mple.com"))
}

func TestNumericValidators(t *testing.T) {
	assert.NoError(t, IDNumber.Validate("0123456789"))
	assert.Error(t, IDNumber.Validate("123456789"))
	assert.Error(t, IDNumber.Validate("12345678901"))
	assert.Error(t, IDNumber.Validate("12345a7890"))

	assert.NoError(t, BankCardNumber.Validate("1234567812345678"))
	assert.Error(t, BankCardNumber.Validate("123456781234567"))
	assert.Error(t, BankCardNumber.Validate("12345678123456789"))
}

func TestValidationErrorCarriesCode(t *testing.T) {
	err := PhoneNumber.Validate("nope")
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_phone_number", verr.Code)
	assert.Contains(t, verr.Message, "12 digits")
}
