package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/api/response"
	"github.com/passforge/passforge/internal/api/validation"
	"github.com/passforge/passforge/internal/authz"
	"github.com/passforge/passforge/internal/location"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// createLocationRequest is the request body for POST /locations.
type createLocationRequest struct {
	Name        string   `json:"name"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	Country     *string  `json:"country"`
	PostalCode  *string  `json:"postalCode"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Radius      *float64 `json:"radius"`
	TenantID    *string  `json:"tenantId"` // superuser only
	BeaconUUID  *string  `json:"beaconUuid"`
	BeaconMajor *int     `json:"beaconMajor"`
	BeaconMinor *int     `json:"beaconMinor"`
}

// updateLocationRequest is the request body for PUT /locations/{id}.
// Absent fields are left unchanged.
type updateLocationRequest struct {
	Name        *string  `json:"name"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	Country     *string  `json:"country"`
	PostalCode  *string  `json:"postalCode"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Radius      *float64 `json:"radius"`
	BeaconUUID  *string  `json:"beaconUuid"`
	BeaconMajor *int     `json:"beaconMajor"`
	BeaconMinor *int     `json:"beaconMinor"`
	IsActive    *bool    `json:"isActive"`
}

// locationResponse is the API representation of a location.
type locationResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
	PostalCode  *string `json:"postalCode"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Radius      float64 `json:"radius"`
	TenantID    string  `json:"tenantId"`
	BeaconUUID  *string `json:"beaconUuid"`
	BeaconMajor *int    `json:"beaconMajor"`
	BeaconMinor *int    `json:"beaconMinor"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toLocationResponse(l *location.Location) locationResponse {
	return locationResponse{
		ID:          l.ID.String(),
		Name:        l.Name,
		Address:     l.Address,
		City:        l.City,
		Country:     l.Country,
		PostalCode:  l.PostalCode,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		Radius:      l.Radius,
		TenantID:    l.TenantID.String(),
		BeaconUUID:  l.BeaconUUID,
		BeaconMajor: l.BeaconMajor,
		BeaconMinor: l.BeaconMinor,
		IsActive:    l.IsActive,
		CreatedAt:   formatTime(l.CreatedAt),
		UpdatedAt:   formatTime(l.UpdatedAt),
	}
}

// LocationHandler handles location CRUD endpoints.
type LocationHandler struct {
	st        *store.Store
	locations *location.Repository
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(st *store.Store, locations *location.Repository) *LocationHandler {
	return &LocationHandler{st: st, locations: locations}
}

// Create handles POST /locations.
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateLocationRequest(validation.CreateLocationRequest{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, ok := resolveTenant(identity, req.TenantID)
	if !ok {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "User does not belong to a tenant", requestID)
		return
	}

	l := &location.Location{
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		PostalCode:  req.PostalCode,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Radius:      100,
		TenantID:    tenantID,
		BeaconUUID:  req.BeaconUUID,
		BeaconMajor: req.BeaconMajor,
		BeaconMinor: req.BeaconMinor,
		IsActive:    true,
	}
	if req.Radius != nil {
		l.Radius = *req.Radius
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		return h.locations.Create(r.Context(), sess, l)
	})
	if err != nil {
		slog.Error("failed to create location", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create location", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toLocationResponse(l), requestID)
}

// List handles GET /locations, scoped to the caller's tenant.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	skip, limit := pagination(r)

	tenantID, ok := listTenant(identity, r)
	if !ok {
		response.SuccessList(w, http.StatusOK, []locationResponse{}, 0, skip, limit, requestID)
		return
	}

	var locations []location.Location
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		locations, err = h.locations.ListByTenant(r.Context(), sess, tenantID, skip, limit)
		return err
	})
	if err != nil {
		slog.Error("failed to list locations", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list locations", requestID)
		return
	}

	items := make([]locationResponse, 0, len(locations))
	for i := range locations {
		items = append(items, toLocationResponse(&locations[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), skip, limit, requestID)
}

// GetByID handles GET /locations/{id}.
func (h *LocationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var l *location.Location
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		l, err = h.locations.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		return authz.Authorize(identity, l)
	})
	if err != nil {
		h.writeLocationError(w, err, id, requestID, "get")
		return
	}

	response.Success(w, http.StatusOK, toLocationResponse(l), requestID)
}

// Update handles PUT /locations/{id}.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateLocationRequest(validation.UpdateLocationRequest{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := location.Update{
		Name:        trimPtr(req.Name),
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		PostalCode:  req.PostalCode,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Radius:      req.Radius,
		BeaconUUID:  req.BeaconUUID,
		BeaconMajor: req.BeaconMajor,
		BeaconMinor: req.BeaconMinor,
		IsActive:    req.IsActive,
	}

	var l *location.Location
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		l, err = h.locations.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, l); err != nil {
			return err
		}
		update.Apply(l)
		return h.locations.Update(r.Context(), sess, l)
	})
	if err != nil {
		h.writeLocationError(w, err, id, requestID, "update")
		return
	}

	response.Success(w, http.StatusOK, toLocationResponse(l), requestID)
}

// Delete handles DELETE /locations/{id}. Deletion is blocked while
// campaigns reference the location.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		l, err := h.locations.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, l); err != nil {
			return err
		}
		return h.locations.Delete(r.Context(), sess, l)
	})
	if err != nil {
		if errors.Is(err, location.ErrInUse) {
			response.Err(w, http.StatusConflict, "LOCATION_IN_USE", "Cannot delete a location that campaigns still use", requestID)
			return
		}
		h.writeLocationError(w, err, id, requestID, "delete")
		return
	}

	response.NoContent(w)
}

func (h *LocationHandler) writeLocationError(w http.ResponseWriter, err error, id uuid.UUID, requestID, op string) {
	if errors.Is(err, repo.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Location not found", requestID)
		return
	}
	if errors.Is(err, authz.ErrForbidden) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
		return
	}
	slog.Error("failed to "+op+" location", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" location", requestID)
}
