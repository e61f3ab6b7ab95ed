package validate

import (
	"fmt"
	"regexp"
)

// ValidationError carries a stable machine code and a human-readable
// message for a rejected input field.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validator checks a single string field against a pattern and fails with
// a fixed code and message.
type Validator struct {
	re      *regexp.Regexp
	code    string
	message string
}

// Validate returns nil when the value matches, otherwise a *ValidationError.
func (v Validator) Validate(value string) error {
	if !v.re.MatchString(value) {
		return &ValidationError{Code: v.code, Message: v.message}
	}
	return nil
}

var (
	// PhoneNumber: 12 digits with a 98 prefix, mobile or landline style.
	PhoneNumber = Validator{
		re:      regexp.MustCompile(`^98(9[0-39]\d{8}|[1-9]\d{9})$`),
		code:    "invalid_phone_number",
		message: "Phone number must be a VALID 12 digits like 98xxxxxxxxxx",
	}

	// SKU: alphanumeric/underscore, 6 to 20 characters.
	SKU = Validator{
		re:      regexp.MustCompile(`^[a-zA-Z0-9_]{6,20}$`),
		code:    "invalid_sku",
		message: "SKU must be alphanumeric with 6 to 20 characters",
	}

	// Username: a letter followed by letters, digits, underscore or dot.
	Username = Validator{
		re:      regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.]+$`),
		code:    "invalid_username",
		message: "Enter a valid username starting with a-z. This value may contain only letters, numbers and underscore characters.",
	}

	// IDNumber: exactly 10 digits.
	IDNumber = Validator{
		re:      regexp.MustCompile(`^[0-9]{10}$`),
		code:    "invalid_id_number",
		message: "Enter a valid id number.",
	}

	// BankCardNumber: exactly 16 digits.
	BankCardNumber = Validator{
		re:      regexp.MustCompile(`^[0-9]{16}$`),
		code:    "invalid_bank_card_number",
		message: "Enter a valid card number.",
	}

	// Email: one @, no whitespace, dotted domain.
	Email = Validator{
		re:      regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		code:    "invalid_email",
		message: "Enter a valid email address.",
	}
)
