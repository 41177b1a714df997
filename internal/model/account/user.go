package account

import (
	"regexp"
	"strings"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
)

// User is the logged-in identity kept in client storage.
type User struct {
	ID       forum.ID `json:"id"`
	Username string   `json:"username"`
}

// LoginForm is what the login page submits.
type LoginForm struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// RegisterForm is what the registration page submits.
// ConfirmPassword stays on the client.
type RegisterForm struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	UserID   forum.ID `json:"user_id"`
	Username string   `json:"username"`
}

// RegisterResult is the backend's answer to a successful registration.
type RegisterResult struct {
	UserID forum.ID `json:"user_id"`
}

const (
	MsgFieldsRequired   = "All fields are required."
	MsgInvalidEmail     = "Invalid email format."
	MsgPasswordMismatch = "Passwords do not match."
	MsgLoginFailed      = "Login failed."
	MsgRegisterFailed   = "Registration failed."
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks the login form before it is sent.
func (f LoginForm) Validate() error {
	if f.UsernameOrEmail == "" || f.Password == "" {
		return forum.Validation(MsgFieldsRequired)
	}
	return nil
}

// Validate checks the registration form before it is sent.
func (f RegisterForm) Validate() error {
	if f.Username == "" || f.Email == "" || f.Password == "" || f.ConfirmPassword == "" {
		return forum.Validation(MsgFieldsRequired)
	}
	if !emailPattern.MatchString(strings.TrimSpace(f.Email)) {
		return forum.Validation(MsgInvalidEmail)
	}
	if f.Password != f.ConfirmPassword {
		return forum.Validation(MsgPasswordMismatch)
	}
	return nil
}
