package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mcdev12/nexora/go/internal/validation"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ReservedUsernames can never be registered.
var ReservedUsernames = []string{"admin", "test", "user", "demo", "nexora"}

func validateLogin(req LoginRequest) error {
	errs := validation.Errors{}
	switch {
	case req.Email == "":
		errs.Add("email", "Email is required")
	case !validation.IsEmail(req.Email):
		errs.Add("email", "Please enter a valid email address")
	}
	switch {
	case req.Password == "":
		errs.Add("password", "Password is required")
	case len(req.Password) < 6:
		errs.Add("password", "Password must be at least 6 characters")
	}
	return errs.Err()
}

// validateRegister checks the form. taken reports whether a username is already in use.
func validateRegister(req RegisterRequest, taken func(string) bool) error {
	errs := validation.Errors{}
	switch {
	case req.Username == "":
		errs.Add("username", "Username is required")
	case len(req.Username) < 3:
		errs.Add("username", "Username must be at least 3 characters")
	case !usernamePattern.MatchString(req.Username):
		errs.Add("username", "Username can only contain letters, numbers, and underscores")
	case taken(req.Username):
		errs.Add("username", "Username is already taken")
	}

	switch {
	case req.Email == "":
		errs.Add("email", "Email is required")
	case !validation.IsEmail(req.Email):
		errs.Add("email", "Please enter a valid email address")
	}

	switch {
	case req.Password == "":
		errs.Add("password", "Password is required")
	case len(req.Password) < 8:
		errs.Add("password", "Password must be at least 8 characters")
	case !mixedPassword(req.Password):
		errs.Add("password", "Password must contain uppercase, lowercase, and number")
	}

	switch {
	case req.ConfirmPassword == "":
		errs.Add("confirm_password", "Please confirm your password")
	case req.ConfirmPassword != req.Password:
		errs.Add("confirm_password", "Passwords do not match")
	}

	if !validUserType(req.UserType) {
		errs.Add("user_type", "Please select your user type")
	}
	if !req.AcceptTerms {
		errs.Add("terms", "Please accept the Terms of Service and Privacy Policy")
	}
	return errs.Err()
}

func mixedPassword(p string) bool {
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func reserved(username string) bool {
	for _, r := range ReservedUsernames {
		if strings.EqualFold(r, username) {
			return true
		}
	}
	return false
}
