package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt" // Password hashing
)

// ErrInvalidPassword is returned when a password does not match its hash
var ErrInvalidPassword = errors.New("invalid password")

// HashPassword hashes a plaintext password with bcrypt at the given cost
func HashPassword(plaintext string, cost int) (string, error) {
	// bcrypt silently truncates past 72 bytes
	if len(plaintext) > 72 {
		return "", fmt.Errorf("password must be 72 bytes or fewer")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password with a stored bcrypt hash
func CheckPassword(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}
