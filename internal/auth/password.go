package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

// ValidatePasswordStrength returns the list of unmet rules in the order they
// are shown to the user. An empty list means the password is acceptable.
func ValidatePasswordStrength(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "Mật khẩu phải có ít nhất 8 ký tự")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		errs = append(errs, "Mật khẩu phải có ít nhất 1 chữ hoa")
	}
	if !hasLower {
		errs = append(errs, "Mật khẩu phải có ít nhất 1 chữ thường")
	}
	if !hasDigit {
		errs = append(errs, "Mật khẩu phải có ít nhất 1 số")
	}
	if !hasSpecial {
		errs = append(errs, "Mật khẩu phải có ít nhất 1 ký tự đặc biệt")
	}

	return errs
}
