package validation

import "github.com/google/uuid"

// CreatePassRequest mirrors the fields needed for create pass validation.
type CreatePassRequest struct {
	TemplateID string
	CustomerID string
	CampaignID string
}

// ValidateCreatePassRequest validates the fields of a create pass request.
func ValidateCreatePassRequest(req CreatePassRequest) []FieldError {
	var errs []FieldError

	if req.TemplateID == "" {
		errs = append(errs, FieldError{Field: "templateId", Message: "templateId is required"})
	} else if _, err := uuid.Parse(req.TemplateID); err != nil {
		errs = append(errs, FieldError{Field: "templateId", Message: "templateId must be a valid UUID"})
	}

	if req.CustomerID == "" {
		errs = append(errs, FieldError{Field: "customerId", Message: "customerId is required"})
	} else if _, err := uuid.Parse(req.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customerId", Message: "customerId must be a valid UUID"})
	}

	if req.CampaignID != "" {
		if _, err := uuid.Parse(req.CampaignID); err != nil {
			errs = append(errs, FieldError{Field: "campaignId", Message: "campaignId must be a valid UUID"})
		}
	}

	return errs
}
