// internal/validation/password.go
package validation

import (
	"regexp"
	"unicode/utf8"
)

// Strength levels reported by CheckPasswordStrength.
const (
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"
)

const minPasswordLength = 8

var (
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

// PasswordStrength is the outcome of a password check. Valid is true only
// when every rule passes.
type PasswordStrength struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Score    int      `json:"score"`
	Level    string   `json:"level"`
	Feedback string   `json:"feedback"`
}

type passwordRule struct {
	ok      func(string) bool
	message string
}

var passwordRules = []passwordRule{
	{func(p string) bool { return utf8.RuneCountInString(p) >= minPasswordLength }, "Password must be at least 8 characters long"},
	{lowerPattern.MatchString, "Password must contain at least one lowercase letter"},
	{upperPattern.MatchString, "Password must contain at least one uppercase letter"},
	{digitPattern.MatchString, "Password must contain at least one number"},
	{specialPattern.MatchString, "Password must contain at least one special character"},
}

// CheckPasswordStrength scores a password against the five rules.
func CheckPasswordStrength(password string) PasswordStrength {
	var result PasswordStrength
	for _, rule := range passwordRules {
		if rule.ok(password) {
			result.Score++
			continue
		}
		result.Errors = append(result.Errors, rule.message)
	}

	switch {
	case result.Score < 3:
		result.Level = StrengthWeak
		result.Feedback = "Consider using a stronger password"
	case result.Score < len(passwordRules):
		result.Level = StrengthMedium
		result.Feedback = "Good password, but could be stronger"
	default:
		result.Level = StrengthStrong
		result.Feedback = "Strong password!"
	}

	result.Valid = len(result.Errors) == 0
	return result
}
