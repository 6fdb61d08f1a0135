package domain

import "errors"

var (
	// ErrNotFound signals a missing user record.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail signals a unique-constraint violation on email.
	ErrDuplicateEmail = errors.New("email already registered")
)
