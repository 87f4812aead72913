package validation

import "strings"

var campaignTypes = map[string]bool{
	"standard": true, "geo": true, "event": true, "promo": true,
}

var campaignStatuses = map[string]bool{
	"draft": true, "scheduled": true, "active": true,
	"paused": true, "completed": true, "cancelled": true,
}

// CreateCampaignRequest mirrors the fields needed for create campaign validation.
type CreateCampaignRequest struct {
	Name         string
	CampaignType string
	IsGeoEnabled bool
	GeoRadius    *float64
	GeoLatitude  *float64
	GeoLongitude *float64
}

// ValidateCreateCampaignRequest validates the fields of a create campaign request.
func ValidateCreateCampaignRequest(req CreateCampaignRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if req.CampaignType != "" && !campaignTypes[req.CampaignType] {
		errs = append(errs, FieldError{Field: "campaignType", Message: `campaignType must be "standard", "geo", "event" or "promo"`})
	}

	if req.IsGeoEnabled {
		if req.GeoLatitude == nil || req.GeoLongitude == nil {
			errs = append(errs, FieldError{Field: "geoLatitude", Message: "geo coordinates are required when geo targeting is enabled"})
		}
		if req.GeoRadius != nil && *req.GeoRadius <= 0 {
			errs = append(errs, FieldError{Field: "geoRadius", Message: "geoRadius must be positive"})
		}
	}

	errs = append(errs, validateCoordinates(req.GeoLatitude, req.GeoLongitude, "geoLatitude", "geoLongitude")...)

	return errs
}

// UpdateCampaignRequest mirrors the fields needed for update campaign validation.
type UpdateCampaignRequest struct {
	CampaignType *string
	Status       *string
	GeoLatitude  *float64
	GeoLongitude *float64
}

// ValidateUpdateCampaignRequest validates the fields of an update campaign request.
func ValidateUpdateCampaignRequest(req UpdateCampaignRequest) []FieldError {
	var errs []FieldError

	if req.CampaignType != nil && !campaignTypes[*req.CampaignType] {
		errs = append(errs, FieldError{Field: "campaignType", Message: `campaignType must be "standard", "geo", "event" or "promo"`})
	}
	if req.Status != nil && !campaignStatuses[*req.Status] {
		errs = append(errs, FieldError{Field: "status", Message: "status is not a valid campaign status"})
	}

	errs = append(errs, validateCoordinates(req.GeoLatitude, req.GeoLongitude, "geoLatitude", "geoLongitude")...)

	return errs
}

func validateCoordinates(lat, lon *float64, latField, lonField string) []FieldError {
	var errs []FieldError

	if lat != nil && (*lat < -90 || *lat > 90) {
		errs = append(errs, FieldError{Field: latField, Message: "latitude must be between -90 and 90"})
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		errs = append(errs, FieldError{Field: lonField, Message: "longitude must be between -180 and 180"})
	}
	return errs
}
