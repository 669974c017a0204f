// internal/validation/validation.go
package validation

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"gopkg.in/go-playground/validator.v9"
)

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidFormat = errors.New("invalid format")
)

// FieldError ties a validation failure to the request field that caused it.
type FieldError struct {
	Field   string
	Err     error
	Message string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError builds a FieldError with a human readable message.
func NewFieldError(field string, err error, message string) *FieldError {
	return &FieldError{Field: field, Err: err, Message: message}
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-().]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
)

const minPhoneDigits = 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Required checks the `validate` tags of a request struct and reports the
// first failing field. Missing values map to ErrMissingField, everything else
// to ErrInvalidFormat.
func Required(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}

	fe := verrs[0]
	if fe.Tag() == "required" {
		return NewFieldError(fe.Field(), ErrMissingField, fe.Field()+" is required")
	}
	return NewFieldError(fe.Field(), ErrInvalidFormat, fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag()))
}

// Email checks the local@domain.tld shape.
func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return NewFieldError("email", ErrInvalidFormat, "please enter a valid email address")
	}
	return nil
}

// Phone accepts an optional leading '+', digits and common separators, with
// at least ten digits overall.
func Phone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return NewFieldError("phone", ErrInvalidFormat, "phone may only contain digits, spaces, '-', '.', '(' and ')'")
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return NewFieldError("phone", ErrInvalidFormat, fmt.Sprintf("phone must contain at least %d digits", minPhoneDigits))
	}
	return nil
}

// Name validates a display name and returns it trimmed.
func Name(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return "", NewFieldError("name", ErrMissingField, "name is required")
	case len(trimmed) < 2:
		return "", NewFieldError("name", ErrInvalidFormat, "name must be at least 2 characters long")
	case len(trimmed) > 50:
		return "", NewFieldError("name", ErrInvalidFormat, "name must be less than 50 characters long")
	case !namePattern.MatchString(trimmed):
		return "", NewFieldError("name", ErrInvalidFormat, "name can only contain letters, spaces, hyphens, and apostrophes")
	}
	return trimmed, nil
}

// PasswordConfirmation checks that both password entries match.
func PasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return NewFieldError("confirmPassword", ErrInvalidFormat, "passwords do not match")
	}
	return nil
}

// GenerateResetToken returns 32 random bytes, hex encoded.
func GenerateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashResetToken is the form a reset token is stored in.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
