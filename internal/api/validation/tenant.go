package validation

import "strings"

var subscriptionTiers = map[string]bool{
	"free": true, "basic": true, "premium": true,
}

var subscriptionStatuses = map[string]bool{
	"active": true, "inactive": true, "cancelled": true, "pending": true,
}

// CreateTenantRequest mirrors the fields needed for create tenant validation.
type CreateTenantRequest struct {
	Name             string
	Slug             string
	SubscriptionTier string
}

// ValidateCreateTenantRequest validates the fields of a create tenant request.
func ValidateCreateTenantRequest(req CreateTenantRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	errs = append(errs, validateSlug(req.Slug, true)...)

	if req.SubscriptionTier != "" && !subscriptionTiers[req.SubscriptionTier] {
		errs = append(errs, FieldError{Field: "subscriptionTier", Message: `subscriptionTier must be "free", "basic" or "premium"`})
	}

	return errs
}

// UpdateTenantRequest mirrors the fields needed for update tenant validation.
type UpdateTenantRequest struct {
	Slug               *string
	SubscriptionTier   *string
	SubscriptionStatus *string
}

// ValidateUpdateTenantRequest validates the fields of an update tenant request.
func ValidateUpdateTenantRequest(req UpdateTenantRequest) []FieldError {
	var errs []FieldError

	if req.Slug != nil {
		errs = append(errs, validateSlug(*req.Slug, true)...)
	}
	if req.SubscriptionTier != nil && !subscriptionTiers[*req.SubscriptionTier] {
		errs = append(errs, FieldError{Field: "subscriptionTier", Message: `subscriptionTier must be "free", "basic" or "premium"`})
	}
	if req.SubscriptionStatus != nil && !subscriptionStatuses[*req.SubscriptionStatus] {
		errs = append(errs, FieldError{Field: "subscriptionStatus", Message: `subscriptionStatus must be "active", "inactive", "cancelled" or "pending"`})
	}

	return errs
}

func validateSlug(slug string, required bool) []FieldError {
	var errs []FieldError

	if slug == "" {
		if required {
			errs = append(errs, FieldError{Field: "slug", Message: "slug is required"})
		}
		return errs
	}
	if len(slug) > 63 {
		errs = append(errs, FieldError{Field: "slug", Message: "slug must be at most 63 characters"})
	} else if !slugRegex.MatchString(slug) {
		errs = append(errs, FieldError{Field: "slug", Message: "slug must be lowercase alphanumeric with hyphens"})
	}
	return errs
}
