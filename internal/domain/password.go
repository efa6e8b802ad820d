package domain

import (
	"strings"
	"unicode"
)

// PasswordSymbols is the punctuation set a password must draw at least one character from.
const PasswordSymbols = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"

// MinPasswordLength is the shortest acceptable password.
const MinPasswordLength = 8

// ValidatePassword checks the password policy. Rules are evaluated in order
// (length, uppercase, digit, symbol) and the first unmet rule is reported.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return invalid("password must be at least 8 characters")
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		return invalid("password must contain an uppercase letter")
	}
	if !hasDigit {
		return invalid("password must contain a digit")
	}
	if !hasSymbol {
		return invalid("password must contain a symbol")
	}
	return nil
}
