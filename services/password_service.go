package services

import (
	"unicode"

	"github.com/arnold-commerce/backend/apperrors"
)

// PasswordValidator validates passwords against security requirements.
type PasswordValidator struct {
	minLength       int
	requireUpper    bool
	requireLower    bool
	requireNumber   bool
	commonPasswords map[string]bool
}

// NewPasswordValidator creates a validator with default settings.
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		minLength:     8,
		requireUpper:  true,
		requireLower:  true,
		requireNumber: true,
		commonPasswords: map[string]bool{
			"password": true,
			"12345678": true,
			"qwertyui": true,
			"letmein1": true,
			"welcome1": true,
		},
	}
}

func weak(msg string) error {
	return apperrors.New(apperrors.KindValidation, apperrors.CodeWeakPassword, msg)
}

// Validate checks a candidate password, returning a WEAK_PASSWORD error
// naming the first unmet requirement.
func (pv *PasswordValidator) Validate(password string) error {
	if len(password) < pv.minLength {
		return weak("password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if pv.requireUpper && !hasUpper {
		return weak("password must contain at least one uppercase letter")
	}
	if pv.requireLower && !hasLower {
		return weak("password must contain at least one lowercase letter")
	}
	if pv.requireNumber && !hasNumber {
		return weak("password must contain at least one number")
	}
	if pv.commonPasswords[password] {
		return weak("password is too common")
	}
	return nil
}
