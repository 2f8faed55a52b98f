package services

import (
	"errors"
	"regexp"
	"unicode"

	"github.com/dmitrijs2005/gophauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 100
	maxFullNameLength = 100

	DefaultListLimit = 10
	MaxListLimit     = 100
)

// usernamePattern accepts letters and digits from any script plus '_' and '-'.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

var (
	emailRules    = []validation.Rule{validation.Required, is.Email}
	usernameRules = []validation.Rule{
		validation.Required,
		validation.RuneLength(3, 50),
		validation.Match(usernamePattern).Error("can only contain letters, numbers, underscores, and hyphens"),
	}
	fullNameRules = []validation.Rule{validation.RuneLength(0, maxFullNameLength)}
	passwordRules = []validation.Rule{
		validation.Required,
		validation.RuneLength(minPasswordLength, maxPasswordLength),
		validation.By(passwordStrength),
	}
)

// passwordStrength requires at least one digit, one upper-case and one
// lower-case letter.
func passwordStrength(value interface{}) error {
	s, _ := value.(string)

	var digit, upper, lower bool
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}

	switch {
	case !digit:
		return errors.New("must contain at least one digit")
	case !upper:
		return errors.New("must contain at least one uppercase letter")
	case !lower:
		return errors.New("must contain at least one lowercase letter")
	}
	return nil
}

// Validate checks the registration input before anything is stored.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules...),
		validation.Field(&in.Username, usernameRules...),
		validation.Field(&in.FullName, fullNameRules...),
		validation.Field(&in.Password, passwordRules...),
	)
}

// Validate checks only the fields that are present.
func (in ProfileUpdate) Validate() error {
	var rules []*validation.FieldRules
	if in.Email != nil {
		rules = append(rules, validation.Field(&in.Email, emailRules...))
	}
	if in.Username != nil {
		rules = append(rules, validation.Field(&in.Username, usernameRules...))
	}
	rules = append(rules, validation.Field(&in.FullName, fullNameRules...))
	return validation.ValidateStruct(&in, rules...)
}

func validatePassword(password string) error {
	if err := validation.Validate(password, passwordRules...); err != nil {
		return validation.Errors{"new_password": err}
	}
	return nil
}

// validationError wraps an ozzo error as a caller-visible validation failure.
func validationError(err error) error {
	return common.NewError(common.ErrValidation, err.Error())
}
