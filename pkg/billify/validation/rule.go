package validation

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const minPasswordLength = 8

//nolint:gochecknoglobals // compiled once
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-_]{3,23}$`)

// validUsername: a letter followed by 3 to 23 letters, digits, hyphens or underscores.
func validUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

// validStrongPassword requires at least 8 characters with an upper case letter, a lower
// case letter, a digit and a symbol.
func validStrongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

func IsStrongPassword(password string) bool {
	var upper, lower, digit, symbol bool

	count := 0

	for _, r := range password {
		count++

		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsSpace(r):
			symbol = true
		}
	}

	return count >= minPasswordLength && upper && lower && digit && symbol
}
