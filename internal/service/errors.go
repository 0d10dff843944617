package service

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")

	// Contact errors
	ErrAlreadyInContacts = errors.New("user is already in contacts")
	ErrAlreadyInvited    = errors.New("user has already been invited")
	ErrNotInvited        = errors.New("user was not invited")
	ErrCannotActOnSelf   = errors.New("cannot perform this action on yourself")

	// Event errors
	ErrAlreadyInCalendar = errors.New("event is already in calendar")
	ErrClash             = errors.New("event clashes with an existing commitment")
	ErrNoAccess          = errors.New("no access to this event")
	ErrNoTimeslotFound   = errors.New("no available timeslot found")
	ErrInvalidDuration   = errors.New("duration must be positive")

	// Account errors
	ErrUserAlreadyExists = errors.New("username already exists")
	ErrPasswordMismatch  = errors.New("password does not match")
	ErrPasswordTooLong   = errors.New("password is longer than 72 bytes")
)
