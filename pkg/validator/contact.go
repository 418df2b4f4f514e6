package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidPhoneFormat indicates phone number contains invalid characters
	ErrInvalidPhoneFormat = errors.New("phone number can only contain digits")

	// ErrInvalidPhoneLength indicates phone number is not 9 digits
	ErrInvalidPhoneLength = errors.New("phone number must be exactly 9 digits")

	// ErrInvalidPhonePrefix indicates phone number is not a Cameroonian mobile number
	ErrInvalidPhonePrefix = errors.New("phone number must start with 6")

	// ErrEmptyEmail indicates email is empty
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates email format is invalid
	ErrInvalidEmail = errors.New("invalid email address")
)

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// emailRegex is intentionally loose; the confirmation email bouncing is the
// real validator
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ContactValidator handles booking contact validation
type ContactValidator struct{}

// NewContactValidator creates a new contact validator instance
func NewContactValidator() *ContactValidator {
	return &ContactValidator{}
}

// ValidatePhone validates a Cameroonian mobile number.
// Accepts formats: 677123456, 677 123 456, +237677123456
// Returns the sanitized number (digits only) and an error if invalid.
func (v *ContactValidator) ValidatePhone(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.SanitizePhone(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidPhoneFormat
	}

	if len(sanitized) != 9 {
		return "", ErrInvalidPhoneLength
	}

	if sanitized[0] != '6' {
		return "", ErrInvalidPhonePrefix
	}

	return sanitized, nil
}

// SanitizePhone removes separators and the 237 country code if present
func (v *ContactValidator) SanitizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")

	if strings.HasPrefix(phone, "237") && len(phone) == 12 {
		phone = phone[3:]
	}

	return phone
}

// ValidateEmail validates an email address and returns it lowercased
func (v *ContactValidator) ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", ErrEmptyEmail
	}
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// IsValidPhone is a convenience method that returns true if phone is valid
func (v *ContactValidator) IsValidPhone(phone string) bool {
	_, err := v.ValidatePhone(phone)
	return err == nil
}

// IsValidEmail is a convenience method that returns true if email is valid
func (v *ContactValidator) IsValidEmail(email string) bool {
	_, err := v.ValidateEmail(email)
	return err == nil
}
