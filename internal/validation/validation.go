// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	maxNameLength    = 100
	maxTitleLength   = 200
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	dataURIRegex = regexp.MustCompile(`^data:image/(png|jpe?g|gif|webp|svg\+xml);base64,[A-Za-z0-9+/]+=*$`)
)

// ValidatePassword checks the password policy: at least 8 characters, an
// A-Z first letter, at least one 0-9 digit and one special character from
// !@#$%^&*(),.?":{}|<>.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordBytes)
	}

	if first := password[0]; first < 'A' || first > 'Z' {
		return fmt.Errorf("password must start with a capital letter")
	}

	if !digitRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one number")
	}

	if !specialRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateName checks a required name part.
func ValidateName(field, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(v) > maxNameLength {
		return fmt.Errorf("%s must not exceed %d characters", field, maxNameLength)
	}
	return nil
}

// ValidateTitle checks a post title.
func ValidateTitle(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(t) > maxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLength)
	}
	return nil
}

// ValidateImage accepts an empty string or a base64 image data URI.
func ValidateImage(image string) error {
	if image == "" {
		return nil
	}
	if !dataURIRegex.MatchString(image) {
		return fmt.Errorf("image must be a base64 encoded image data URI")
	}
	return nil
}
