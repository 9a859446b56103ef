// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/sanctumapp/sanctum/internal/errors"
)

// emailRegex is a basic email validation pattern.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validates email format.
var Email = validation.NewStringRuleWithError(
	emailRegex.MatchString,
	validation.NewError("validation_email", "must be a valid email address"),
)

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool { return strings.TrimSpace(s) != "" },
	validation.NewError("validation_not_blank", "cannot be blank"),
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PasswordRules returns the validation rules applied to every password that
// reaches the envelope core: required and between 8 and 128 characters.
// Strength policy beyond length is the caller's concern.
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password is required"),
		validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
	}
}

// ValidatePassword applies PasswordRules to a password value.
func ValidatePassword(password string) error {
	return WrapValidationError(validation.Validate(password, PasswordRules()...))
}

// ValidateRecoveryPhraseInput rejects empty or whitespace-only phrase input
// before it reaches the KDF.
func ValidateRecoveryPhraseInput(phrase string) error {
	if strings.TrimSpace(phrase) == "" {
		return WrapValidationError(validation.NewError(
			"validation_recovery_phrase", "recovery phrase is required"))
	}
	return nil
}
