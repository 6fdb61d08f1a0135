package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost 12 keeps a hash around 250ms on commodity hardware, acceptable
// for interactive login.
const hashCost = 12

// MinLength is the shortest password accepted anywhere a password is set.
const MinLength = 6

// ErrTooShort rejects passwords below MinLength.
var ErrTooShort = errors.New("password must be at least 6 characters")

// Hash returns a salted bcrypt hash of the plaintext.
func Hash(plaintext string) (string, error) {
	if len(plaintext) < MinLength {
		return "", ErrTooShort
	}
	sum, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(sum), nil
}

// Verify checks a plaintext password against a stored hash.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
