package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Age   int    `json:"age" validate:"omitempty,min=18"`
}

func TestRequired(t *testing.T) {
	err := Required(signupForm{Name: "Ada"})
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "email", fe.Field)
	assert.ErrorIs(t, err, ErrMissingField)

	err = Required(signupForm{Name: "Ada", Email: "ada@example.com", Age: 12})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.NoError(t, Required(signupForm{Name: "Ada", Email: "ada@example.com"}))
}

func TestEmail(t *testing.T) {
	for _, ok := range []string{"a@b.co", "first.last@club.example.com"} {
		assert.NoError(t, Email(ok), ok)
	}
	for _, bad := range []string{"not-an-email", "a@b", "a b@c.com", "@club.com"} {
		assert.ErrorIs(t, Email(bad), ErrInvalidFormat, bad)
	}
}

func TestPhone(t *testing.T) {
	for _, ok := range []string{"9876543210", "+91 98765 43210", "(555) 123-4567", "555.123.4567"} {
		assert.NoError(t, Phone(ok), ok)
	}
	for _, bad := range []string{"12345", "phone-number", "+1 555 12", "98765x43210"} {
		assert.ErrorIs(t, Phone(bad), ErrInvalidFormat, bad)
	}
}

func TestName(t *testing.T) {
	name, err := Name("  Mary-Jane O'Neil ")
	require.NoError(t, err)
	assert.Equal(t, "Mary-Jane O'Neil", name)

	_, err = Name("   ")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = Name("A")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Name("R2-D2")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		level    string
		valid    bool
		score    int
	}{
		{"abc", StrengthWeak, false, 1},
		{"abcdefgh1", StrengthMedium, false, 3},
		{"Abcdefgh1", StrengthMedium, false, 4},
		{"Abcdefgh1!", StrengthStrong, true, 5},
	}
	for _, tt := range tests {
		got := CheckPasswordStrength(tt.password)
		assert.Equal(t, tt.level, got.Level, tt.password)
		assert.Equal(t, tt.valid, got.Valid, tt.password)
		assert.Equal(t, tt.score, got.Score, tt.password)
		assert.Len(t, got.Errors, 5-tt.score, tt.password)
	}
}

func TestPasswordConfirmation(t *testing.T) {
	assert.NoError(t, PasswordConfirmation("Secret1!", "Secret1!"))
	assert.ErrorIs(t, PasswordConfirmation("Secret1!", "secret1!"), ErrInvalidFormat)
}

func TestResetToken(t *testing.T) {
	a, err := GenerateResetToken()
	require.NoError(t, err)
	b, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, HashResetToken(a), HashResetToken(a))
	assert.NotEqual(t, a, HashResetToken(a))
	assert.Len(t, HashResetToken(a), 64)
}
