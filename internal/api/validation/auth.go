package validation

import "strings"

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Username string
	Password string
}

// ValidateLoginRequest validates the fields of a login request.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Username) == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}

// RegisterRequest mirrors the fields needed for registration validation.
type RegisterRequest struct {
	Email    string
	Password string
}

// ValidateRegisterRequest validates the fields of a registration request.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if len(req.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	return errs
}

// RefreshRequest mirrors the fields needed for refresh validation.
type RefreshRequest struct {
	RefreshToken string
}

// ValidateRefreshRequest validates the fields of a refresh request.
func ValidateRefreshRequest(req RefreshRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.RefreshToken) == "" {
		errs = append(errs, FieldError{Field: "refreshToken", Message: "refreshToken is required"})
	}

	return errs
}
