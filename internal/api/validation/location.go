package validation

import "strings"

// CreateLocationRequest mirrors the fields needed for create location validation.
type CreateLocationRequest struct {
	Name      string
	Latitude  *float64
	Longitude *float64
	Radius    *float64
}

// ValidateCreateLocationRequest validates the fields of a create location request.
func ValidateCreateLocationRequest(req CreateLocationRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	if req.Latitude == nil {
		errs = append(errs, FieldError{Field: "latitude", Message: "latitude is required"})
	}
	if req.Longitude == nil {
		errs = append(errs, FieldError{Field: "longitude", Message: "longitude is required"})
	}
	errs = append(errs, validateCoordinates(req.Latitude, req.Longitude, "latitude", "longitude")...)

	if req.Radius != nil && *req.Radius <= 0 {
		errs = append(errs, FieldError{Field: "radius", Message: "radius must be positive"})
	}

	return errs
}

// UpdateLocationRequest mirrors the fields needed for update location validation.
type UpdateLocationRequest struct {
	Latitude  *float64
	Longitude *float64
	Radius    *float64
}

// ValidateUpdateLocationRequest validates the fields of an update location request.
func ValidateUpdateLocationRequest(req UpdateLocationRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateCoordinates(req.Latitude, req.Longitude, "latitude", "longitude")...)

	if req.Radius != nil && *req.Radius <= 0 {
		errs = append(errs, FieldError{Field: "radius", Message: "radius must be positive"})
	}

	return errs
}
