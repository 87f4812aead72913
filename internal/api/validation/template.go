package validation

import "strings"

var passTypes = map[string]bool{
	"generic": true, "coupon": true, "eventTicket": true,
	"boardingPass": true, "storeCard": true,
}

// CreateTemplateRequest mirrors the fields needed for create template validation.
type CreateTemplateRequest struct {
	Name            string
	PassType        string
	BackgroundColor *string
	ForegroundColor *string
	LabelColor      *string
}

// ValidateCreateTemplateRequest validates the fields of a create template request.
func ValidateCreateTemplateRequest(req CreateTemplateRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if req.PassType != "" && !passTypes[req.PassType] {
		errs = append(errs, FieldError{Field: "passType", Message: `passType must be "generic", "coupon", "eventTicket", "boardingPass" or "storeCard"`})
	}

	errs = append(errs, validateColors(req.BackgroundColor, req.ForegroundColor, req.LabelColor)...)

	return errs
}

// UpdateTemplateRequest mirrors the fields needed for update template validation.
type UpdateTemplateRequest struct {
	PassType        *string
	BackgroundColor *string
	ForegroundColor *string
	LabelColor      *string
}

// ValidateUpdateTemplateRequest validates the fields of an update template request.
func ValidateUpdateTemplateRequest(req UpdateTemplateRequest) []FieldError {
	var errs []FieldError

	if req.PassType != nil && !passTypes[*req.PassType] {
		errs = append(errs, FieldError{Field: "passType", Message: `passType must be "generic", "coupon", "eventTicket", "boardingPass" or "storeCard"`})
	}

	errs = append(errs, validateColors(req.BackgroundColor, req.ForegroundColor, req.LabelColor)...)

	return errs
}

func validateColors(colors ...*string) []FieldError {
	fields := []string{"backgroundColor", "foregroundColor", "labelColor"}

	var errs []FieldError
	for i, c := range colors {
		if c != nil && !colorRegex.MatchString(*c) {
			errs = append(errs, FieldError{Field: fields[i], Message: "color must be a hex value like #1a2b3c"})
		}
	}
	return errs
}
