package auth

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

// MinPasswordLength applies to passwords chosen at admin registration.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Fields is a flat view of request input keyed by field name.
type Fields map[string]string

// Rules describes the checks applied to Fields, in order: presence of every
// Required field, then the Email format, then the Password length.
type Rules struct {
	Required          []string
	Email             string
	Password          string
	MinPasswordLength int
}

// ValidationError reports the first failed check.
type ValidationError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	adminLoginRules = Rules{
		Required: []string{"email", "password"},
		Email:    "email",
	}
	adminRegisterRules = Rules{
		Required:          []string{"email", "password"},
		Email:             "email",
		Password:          "password",
		MinPasswordLength: MinPasswordLength,
	}
	regularLoginRules    = Rules{Required: []string{"cpf"}}
	regularRegisterRules = Rules{Required: []string{"cpf", "name"}}
)

// Validate runs rules against fields and returns a *ValidationError for the
// first check that fails.
func Validate(fields Fields, rules Rules) error {
	for _, name := range rules.Required {
		if err := validation.Validate(fields[name], validation.Required); err != nil {
			return &ValidationError{Kind: KindMissingField, Field: name, Err: err}
		}
	}

	if rules.Email != "" {
		if err := validation.Validate(fields[rules.Email], validation.Match(emailPattern)); err != nil {
			return &ValidationError{Kind: KindInvalidFormat, Field: rules.Email, Err: err}
		}
	}

	if rules.Password != "" && rules.MinPasswordLength > 0 {
		rule := validation.RuneLength(rules.MinPasswordLength, 0)
		if err := validation.Validate(fields[rules.Password], rule); err != nil {
			return &ValidationError{Kind: KindPolicyViolation, Field: rules.Password, Err: err}
		}
	}

	return nil
}
