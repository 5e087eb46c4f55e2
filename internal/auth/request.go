package auth

import "strings"

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,username"`
	FirstName       string `json:"firstName" validate:"required,alpha"`
	LastName        string `json:"lastName" validate:"required,alpha"`
	Password        string `json:"password" validate:"required,strongpassword"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (r *RegisterRequest) Sanitize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (*RegisterRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"email.required":          "Email is required",
		"email.email":             "Please provide a valid email",
		"username.required":       "Username is required",
		"username.username":       "Username must start with a letter and contain only letters, numbers, hyphens, or underscores.",
		"firstName.required":      "First name is required",
		"firstName.alpha":         "First name must contain only letters",
		"lastName.required":       "Last name is required",
		"lastName.alpha":          "Last name must contain only letters",
		"password.required":       "Password is required",
		"password.strongpassword": "Password must be 8+ chars with upper, lower, number, and symbol",
		"passwordConfirm.eqfield": "Passwords do not match",
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Sanitize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (*LoginRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"email.required":    "Email is required",
		"email.email":       "Please provide a valid email",
		"password.required": "Password is required",
	}
}

// MessageResponse is the body of the account workflow endpoints.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresAt   int64  `json:"expiresAt"`
}
