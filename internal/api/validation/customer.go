package validation

import "strings"

// CreateCustomerRequest mirrors the fields needed for create customer validation.
type CreateCustomerRequest struct {
	Email string
}

// ValidateCreateCustomerRequest validates the fields of a create customer request.
func ValidateCreateCustomerRequest(req CreateCustomerRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	return errs
}

// UpdateCustomerRequest mirrors the fields needed for update customer validation.
type UpdateCustomerRequest struct {
	Email *string
}

// ValidateUpdateCustomerRequest validates the fields of an update customer request.
func ValidateUpdateCustomerRequest(req UpdateCustomerRequest) []FieldError {
	var errs []FieldError

	if req.Email != nil && !emailRegex.MatchString(*req.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	return errs
}
