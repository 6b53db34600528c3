package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "fuel-pricing/pkg/errors"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", apperrors.NewInvalidInputError("password must not exceed %d bytes", MaxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// PasswordMatches is false for a wrong password and for a malformed hash alike.
func PasswordMatches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
