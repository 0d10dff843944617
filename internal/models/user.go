package models

// User represents an account in the scheduling system.
//
// Relationships are stored as ordered id-sets rather than object references.
// Contacts is symmetric between two users, and SentContactInvites of one user
// mirrors ReceivedContactInvites of the other.
type User struct {
	ID             int64  `json:"id" db:"id"`
	Username       string `json:"username" db:"username"`
	DisplayName    string `json:"display_name" db:"display_name"`
	HashedPassword string `json:"-" db:"hashed_password"`

	Contacts               IDSet `json:"contacts"`
	SentContactInvites     IDSet `json:"sent_contact_invites"`
	ReceivedContactInvites IDSet `json:"received_contact_invites"`

	Calendar      IDSet `json:"calendar"`
	CreatedEvents IDSet `json:"created_events"`
	EventInvites  IDSet `json:"event_invites"`
}

// NewUser creates a user with empty relationship collections.
// The display name defaults to the username.
func NewUser(username, hashedPassword string) *User {
	return &User{
		Username:       username,
		DisplayName:    username,
		HashedPassword: hashedPassword,
	}
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.Contacts = u.Contacts.Clone()
	c.SentContactInvites = u.SentContactInvites.Clone()
	c.ReceivedContactInvites = u.ReceivedContactInvites.Clone()
	c.Calendar = u.Calendar.Clone()
	c.CreatedEvents = u.CreatedEvents.Clone()
	c.EventInvites = u.EventInvites.Clone()
	return &c
}

// Profile is the read-only view of a user handed to callers outside the core.
// It never carries the password credential.
type Profile struct {
	Username               string `json:"username"`
	DisplayName            string `json:"display_name"`
	ContactCount           int    `json:"contact_count"`
	ReceivedContactInvites int    `json:"received_contact_invites"`
	SentContactInvites     int    `json:"sent_contact_invites"`
	CalendarEvents         int    `json:"calendar_events"`
	CreatedEvents          int    `json:"created_events"`
	EventInvites           int    `json:"event_invites"`
}

// ProfileOf builds the profile projection of u.
func ProfileOf(u *User) Profile {
	return Profile{
		Username:               u.Username,
		DisplayName:            u.DisplayName,
		ContactCount:           len(u.Contacts),
		ReceivedContactInvites: len(u.ReceivedContactInvites),
		SentContactInvites:     len(u.SentContactInvites),
		CalendarEvents:         len(u.Calendar),
		CreatedEvents:          len(u.CreatedEvents),
		EventInvites:           len(u.EventInvites),
	}
}

// UserSummary identifies a user in lists (contacts, invitees, attendees).
type UserSummary struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// SummaryOf returns the list projection of u.
func SummaryOf(u *User) UserSummary {
	return UserSummary{Username: u.Username, DisplayName: u.DisplayName}
}

// CreateUserRequest represents the data needed to sign up. Usernames appear
// in URL paths, so they are limited to letters, digits, "_", "." and "-".
// Passwords are capped at bcrypt's 72 byte input limit.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresIn int64  `json:"expires_in"`
}

// UpdateDisplayNameRequest changes the name shown to other users
type UpdateDisplayNameRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// UpdatePasswordRequest changes the account password.
// NewPasswordConfirmation must repeat NewPassword.
type UpdatePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=8,max=72"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// ContactInviteRequest names the user to invite
type ContactInviteRequest struct {
	Username string `json:"username" validate:"required"`
}
