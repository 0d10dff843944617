package repository

import "errors"

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when a user with the same username already exists
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEventNotFound is returned when an event is not found
	ErrEventNotFound = errors.New("event not found")
)
