package validation

import (
	"strings"

	"github.com/google/uuid"
)

// CreateUserRequest mirrors the fields needed for user creation validation.
type CreateUserRequest struct {
	Email    string
	Password string
	TenantID *string
}

// ValidateCreateUserRequest validates the fields of a user creation request.
func ValidateCreateUserRequest(req CreateUserRequest) []FieldError {
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

	if req.TenantID != nil {
		if _, err := uuid.Parse(*req.TenantID); err != nil {
			errs = append(errs, FieldError{Field: "tenantId", Message: "tenantId must be a valid UUID"})
		}
	}

	return errs
}

// UpdateUserRequest mirrors the fields needed for user update validation.
// Nil fields are not validated.
type UpdateUserRequest struct {
	Email    *string
	Password *string
	TenantID *string
}

// ValidateUpdateUserRequest validates the provided fields of a user
// update request.
func ValidateUpdateUserRequest(req UpdateUserRequest) []FieldError {
	var errs []FieldError

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			errs = append(errs, FieldError{Field: "email", Message: "email must not be empty"})
		} else if !emailRegex.MatchString(email) {
			errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
		}
	}

	if req.Password != nil && len(*req.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	if req.TenantID != nil {
		if _, err := uuid.Parse(*req.TenantID); err != nil {
			errs = append(errs, FieldError{Field: "tenantId", Message: "tenantId must be a valid UUID"})
		}
	}

	return errs
}
