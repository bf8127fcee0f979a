package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex      = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,19}$`)
	nationalIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-/]{4,19}$`)
	controlRegex    = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidatePhone accepts an optional leading +, digits, spaces and dashes
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("invalid phone number: %s", phone)
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 {
		return fmt.Errorf("phone number must contain at least 7 digits: %s", phone)
	}
	return nil
}

// ValidateNationalID validates an identity document number (5 to 20 characters)
func ValidateNationalID(id string) error {
	if !nationalIDRegex.MatchString(id) {
		return fmt.Errorf("invalid national id: %s", id)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlRegex.ReplaceAllString(s, ""))
}
