package models

import (
	"time"
)

// UserType is the profile category chosen at registration.
type UserType string

const (
	UserTypeStudent      UserType = "student"
	UserTypeProfessional UserType = "professional"
	UserTypeEducator     UserType = "educator"
	UserTypeFreelancer   UserType = "freelancer"
)

// User represents the signed in profile
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	UserType  UserType  `json:"user_type"`
	JoinDate  time.Time `json:"join_date"`
	IsNewUser bool      `json:"is_new_user,omitempty"`
}

// AuthSession is the persisted login session.
type AuthSession struct {
	User
	ExpiresAt time.Time `json:"expires_at"`
	LoginTime time.Time `json:"login_time"`
}

// Valid reports whether the session has not yet expired at now.
func (s AuthSession) Valid(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.Before(s.ExpiresAt)
}

// RegisteredUser is an account created through registration.
type RegisteredUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

// UserPreferences holds per-profile choices that are cleared on logout.
type UserPreferences struct {
	LastFocusMode FocusModeType `json:"last_focus_mode,omitempty"`
	Theme         string        `json:"theme,omitempty"`
}
