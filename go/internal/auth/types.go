package auth

import (
	"time"

	"github.com/mcdev12/nexora/go/internal/models"
)

// LoginRequest represents the login form
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration form
type RegisterRequest struct {
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirm_password"`
	UserType        models.UserType `json:"user_type"`
	AcceptTerms     bool            `json:"accept_terms"`
}

// Session is returned after a successful login or registration
type Session struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// UserTypeOption describes a selectable user type
type UserTypeOption struct {
	Value       models.UserType `json:"value"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
}

// UserTypes lists the user types offered at registration.
var UserTypes = []UserTypeOption{
	{models.UserTypeStudent, "Student", "Academic focus and study sessions"},
	{models.UserTypeProfessional, "Professional", "Work productivity and deep focus"},
	{models.UserTypeEducator, "Educator", "Teaching and classroom management"},
	{models.UserTypeFreelancer, "Freelancer", "Project-based work focus"},
}

func validUserType(t models.UserType) bool {
	for _, o := range UserTypes {
		if o.Value == t {
			return true
		}
	}
	return false
}
