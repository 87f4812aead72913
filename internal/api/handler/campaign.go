package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/api/response"
	"github.com/passforge/passforge/internal/api/validation"
	"github.com/passforge/passforge/internal/authz"
	"github.com/passforge/passforge/internal/campaign"
	"github.com/passforge/passforge/internal/customer"
	"github.com/passforge/passforge/internal/location"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/template"
)

// createCampaignRequest is the request body for POST /campaigns.
type createCampaignRequest struct {
	Name                string     `json:"name"`
	Description         *string    `json:"description"`
	TenantID            *string    `json:"tenantId"` // superuser only
	CampaignType        string     `json:"campaignType"`
	TemplateID          *string    `json:"templateId"`
	Content             *string    `json:"content"`
	NotificationMessage *string    `json:"notificationMessage"`
	IsGeoEnabled        *bool      `json:"isGeoEnabled"`
	GeoRadius           *float64   `json:"geoRadius"`
	GeoLatitude         *float64   `json:"geoLatitude"`
	GeoLongitude        *float64   `json:"geoLongitude"`
	LocationID          *string    `json:"locationId"`
	StartDate           *time.Time `json:"startDate"`
	EndDate             *time.Time `json:"endDate"`
}

// updateCampaignRequest is the request body for PUT /campaigns/{id}.
// Absent fields are left unchanged.
type updateCampaignRequest struct {
	Name                *string    `json:"name"`
	Description         *string    `json:"description"`
	CampaignType        *string    `json:"campaignType"`
	TemplateID          *string    `json:"templateId"`
	Content             *string    `json:"content"`
	NotificationMessage *string    `json:"notificationMessage"`
	IsGeoEnabled        *bool      `json:"isGeoEnabled"`
	GeoRadius           *float64   `json:"geoRadius"`
	GeoLatitude         *float64   `json:"geoLatitude"`
	GeoLongitude        *float64   `json:"geoLongitude"`
	LocationID          *string    `json:"locationId"`
	StartDate           *time.Time `json:"startDate"`
	EndDate             *time.Time `json:"endDate"`
	Status              *string    `json:"status"`
	IsActive            *bool      `json:"isActive"`
}

// addCampaignCustomersRequest is the request body for
// POST /campaigns/{id}/customers.
type addCampaignCustomersRequest struct {
	CustomerIDs []string `json:"customerIds"`
}

// campaignResponse is the API representation of a campaign.
type campaignResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         *string  `json:"description"`
	TenantID            string   `json:"tenantId"`
	CreatedBy           string   `json:"createdBy"`
	CampaignType        string   `json:"campaignType"`
	TemplateID          *string  `json:"templateId"`
	Content             *string  `json:"content"`
	NotificationMessage *string  `json:"notificationMessage"`
	IsGeoEnabled        bool     `json:"isGeoEnabled"`
	GeoRadius           *float64 `json:"geoRadius"`
	GeoLatitude         *float64 `json:"geoLatitude"`
	GeoLongitude        *float64 `json:"geoLongitude"`
	LocationID          *string  `json:"locationId"`
	StartDate           *string  `json:"startDate"`
	EndDate             *string  `json:"endDate"`
	Status              string   `json:"status"`
	IsActive            bool     `json:"isActive"`
	SendCount           int      `json:"sendCount"`
	OpenCount           int      `json:"openCount"`
	ConversionCount     int      `json:"conversionCount"`
	CreatedAt           string   `json:"createdAt"`
	UpdatedAt           string   `json:"updatedAt"`
}

func toCampaignResponse(c *campaign.Campaign) campaignResponse {
	return campaignResponse{
		ID:                  c.ID.String(),
		Name:                c.Name,
		Description:         c.Description,
		TenantID:            c.TenantID.String(),
		CreatedBy:           c.CreatedBy.String(),
		CampaignType:        c.CampaignType,
		TemplateID:          uuidPtrString(c.TemplateID),
		Content:             c.Content,
		NotificationMessage: c.NotificationMessage,
		IsGeoEnabled:        c.IsGeoEnabled,
		GeoRadius:           c.GeoRadius,
		GeoLatitude:         c.GeoLatitude,
		GeoLongitude:        c.GeoLongitude,
		LocationID:          uuidPtrString(c.LocationID),
		StartDate:           formatTimePtr(c.StartDate),
		EndDate:             formatTimePtr(c.EndDate),
		Status:              c.Status,
		IsActive:            c.IsActive,
		SendCount:           c.SendCount,
		OpenCount:           c.OpenCount,
		ConversionCount:     c.ConversionCount,
		CreatedAt:           formatTime(c.CreatedAt),
		UpdatedAt:           formatTime(c.UpdatedAt),
	}
}

// CampaignHandler handles campaign CRUD, enrollment and execution.
type CampaignHandler struct {
	st        *store.Store
	campaigns *campaign.Repository
	customers *customer.Repository
	templates *template.Repository
	locations *location.Repository
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(st *store.Store, campaigns *campaign.Repository, customers *customer.Repository, templates *template.Repository, locations *location.Repository) *CampaignHandler {
	return &CampaignHandler{st: st, campaigns: campaigns, customers: customers, templates: templates, locations: locations}
}

// checkRefs verifies that the campaign's referenced template and
// location, when set, exist and belong to the campaign's tenant. On a
// missing record missingRef carries the client-facing message.
func (h *CampaignHandler) checkRefs(ctx context.Context, sess *store.Session, c *campaign.Campaign, missingRef *string) error {
	if c.TemplateID != nil {
		tpl, err := h.templates.GetByID(ctx, sess, *c.TemplateID)
		if errors.Is(err, repo.ErrNotFound) {
			*missingRef = "Template not found"
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}
		if tpl.TenantID != c.TenantID {
			return authz.ErrForbidden
		}
	}
	if c.LocationID != nil {
		loc, err := h.locations.GetByID(ctx, sess, *c.LocationID)
		if errors.Is(err, repo.ErrNotFound) {
			*missingRef = "Location not found"
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}
		if loc.TenantID != c.TenantID {
			return authz.ErrForbidden
		}
	}
	return nil
}

// Create handles POST /campaigns.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	geoEnabled := req.IsGeoEnabled != nil && *req.IsGeoEnabled
	fieldErrors := validation.ValidateCreateCampaignRequest(validation.CreateCampaignRequest{
		Name:         req.Name,
		CampaignType: req.CampaignType,
		IsGeoEnabled: geoEnabled,
		GeoRadius:    req.GeoRadius,
		GeoLatitude:  req.GeoLatitude,
		GeoLongitude: req.GeoLongitude,
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

	c := &campaign.Campaign{
		Name:                req.Name,
		Description:         req.Description,
		TenantID:            tenantID,
		CreatedBy:           identity.UserID,
		CampaignType:        campaign.TypeStandard,
		Content:             req.Content,
		NotificationMessage: req.NotificationMessage,
		IsGeoEnabled:        geoEnabled,
		GeoRadius:           req.GeoRadius,
		GeoLatitude:         req.GeoLatitude,
		GeoLongitude:        req.GeoLongitude,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Status:              campaign.StatusDraft,
		IsActive:            true,
	}
	if req.CampaignType != "" {
		c.CampaignType = req.CampaignType
	}
	if req.TemplateID != nil {
		id, err := uuid.Parse(*req.TemplateID)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "templateId must be a valid UUID", requestID)
			return
		}
		c.TemplateID = &id
	}
	if req.LocationID != nil {
		id, err := uuid.Parse(*req.LocationID)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "locationId must be a valid UUID", requestID)
			return
		}
		c.LocationID = &id
	}

	var missingRef string
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		if err := h.checkRefs(r.Context(), sess, c, &missingRef); err != nil {
			return err
		}
		return h.campaigns.Create(r.Context(), sess, c)
	})
	if err != nil {
		if missingRef != "" {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", missingRef, requestID)
			return
		}
		if errors.Is(err, authz.ErrForbidden) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
			return
		}
		slog.Error("failed to create campaign", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create campaign", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toCampaignResponse(c), requestID)
}

// List handles GET /campaigns. Results are scoped to the caller's
// tenant; ?status= narrows by campaign status.
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	skip, limit := pagination(r)

	status := r.URL.Query().Get("status")

	tenantID, ok := listTenant(identity, r)
	if !ok {
		response.SuccessList(w, http.StatusOK, []campaignResponse{}, 0, skip, limit, requestID)
		return
	}

	var campaigns []campaign.Campaign
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		campaigns, err = h.campaigns.ListByTenant(r.Context(), sess, tenantID, status, skip, limit)
		return err
	})
	if err != nil {
		slog.Error("failed to list campaigns", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list campaigns", requestID)
		return
	}

	items := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		items = append(items, toCampaignResponse(&campaigns[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), skip, limit, requestID)
}

// GetByID handles GET /campaigns/{id}.
func (h *CampaignHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var c *campaign.Campaign
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		c, err = h.campaigns.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		return authz.Authorize(identity, c)
	})
	if err != nil {
		h.writeCampaignError(w, err, id, requestID, "get")
		return
	}

	response.Success(w, http.StatusOK, toCampaignResponse(c), requestID)
}

// Update handles PUT /campaigns/{id}.
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateCampaignRequest(validation.UpdateCampaignRequest{
		CampaignType: req.CampaignType,
		Status:       req.Status,
		GeoLatitude:  req.GeoLatitude,
		GeoLongitude: req.GeoLongitude,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := campaign.Update{
		Name:                trimPtr(req.Name),
		Description:         req.Description,
		CampaignType:        req.CampaignType,
		Content:             req.Content,
		NotificationMessage: req.NotificationMessage,
		IsGeoEnabled:        req.IsGeoEnabled,
		GeoRadius:           req.GeoRadius,
		GeoLatitude:         req.GeoLatitude,
		GeoLongitude:        req.GeoLongitude,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Status:              req.Status,
		IsActive:            req.IsActive,
	}
	if req.TemplateID != nil {
		tid, err := uuid.Parse(*req.TemplateID)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "templateId must be a valid UUID", requestID)
			return
		}
		update.TemplateID = &tid
	}
	if req.LocationID != nil {
		lid, err := uuid.Parse(*req.LocationID)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "locationId must be a valid UUID", requestID)
			return
		}
		update.LocationID = &lid
	}

	var c *campaign.Campaign
	var missingRef string
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		c, err = h.campaigns.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, c); err != nil {
			return err
		}
		update.Apply(c)
		if err := h.checkRefs(r.Context(), sess, c, &missingRef); err != nil {
			return err
		}
		return h.campaigns.Update(r.Context(), sess, c)
	})
	if err != nil {
		if missingRef != "" {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", missingRef, requestID)
			return
		}
		h.writeCampaignError(w, err, id, requestID, "update")
		return
	}

	response.Success(w, http.StatusOK, toCampaignResponse(c), requestID)
}

// Delete handles DELETE /campaigns/{id}. The campaign is cancelled, not
// removed.
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		c, err := h.campaigns.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, c); err != nil {
			return err
		}
		return h.campaigns.Delete(r.Context(), sess, c)
	})
	if err != nil {
		h.writeCampaignError(w, err, id, requestID, "delete")
		return
	}

	response.NoContent(w)
}

// Execute handles POST /campaigns/{id}/execute. The campaign moves to
// active and its send counter grows by the number of enrolled
// customers. Only draft, scheduled and active campaigns may run.
func (h *CampaignHandler) Execute(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var c *campaign.Campaign
	var notExecutable bool
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		c, err = h.campaigns.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, c); err != nil {
			return err
		}
		if !c.Executable() {
			notExecutable = true
			return nil
		}

		enrolled, err := h.campaigns.CustomerIDs(r.Context(), sess, id)
		if err != nil {
			return err
		}

		c.Status = campaign.StatusActive
		c.IsActive = true
		c.SendCount += len(enrolled)
		return h.campaigns.Update(r.Context(), sess, c)
	})
	if err != nil {
		h.writeCampaignError(w, err, id, requestID, "execute")
		return
	}
	if notExecutable {
		response.Err(w, http.StatusConflict, "NOT_EXECUTABLE", "Campaign cannot be executed from status "+c.Status, requestID)
		return
	}

	response.Success(w, http.StatusOK, toCampaignResponse(c), requestID)
}

// AddCustomers handles POST /campaigns/{id}/customers. Every customer
// must exist in the campaign's tenant; enrollment is idempotent.
func (h *CampaignHandler) AddCustomers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req addCampaignCustomersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	if len(req.CustomerIDs) == 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "customerIds", Message: "customerIds must not be empty"}}, requestID)
		return
	}

	customerIDs := make([]uuid.UUID, 0, len(req.CustomerIDs))
	for _, raw := range req.CustomerIDs {
		cid, err := uuid.Parse(raw)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "customerIds must be valid UUIDs", requestID)
			return
		}
		customerIDs = append(customerIDs, cid)
	}

	var c *campaign.Campaign
	var missing *uuid.UUID
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		c, err = h.campaigns.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, c); err != nil {
			return err
		}

		for _, cid := range customerIDs {
			cust, err := h.customers.GetByID(r.Context(), sess, cid)
			if errors.Is(err, repo.ErrNotFound) {
				cid := cid
				missing = &cid
				return repo.ErrNotFound
			}
			if err != nil {
				return err
			}
			if cust.TenantID != c.TenantID {
				return authz.ErrForbidden
			}
		}

		return h.campaigns.AddCustomers(r.Context(), sess, id, customerIDs)
	})
	if err != nil {
		if missing != nil {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Customer "+missing.String()+" not found", requestID)
			return
		}
		h.writeCampaignError(w, err, id, requestID, "enroll customers in")
		return
	}

	response.Success(w, http.StatusOK, toCampaignResponse(c), requestID)
}

// Customers handles GET /campaigns/{id}/customers.
func (h *CampaignHandler) Customers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var enrolled []customer.Customer
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		c, err := h.campaigns.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, c); err != nil {
			return err
		}

		ids, err := h.campaigns.CustomerIDs(r.Context(), sess, id)
		if err != nil {
			return err
		}
		for _, cid := range ids {
			cust, err := h.customers.GetByID(r.Context(), sess, cid)
			if err != nil {
				return err
			}
			enrolled = append(enrolled, *cust)
		}
		return nil
	})
	if err != nil {
		h.writeCampaignError(w, err, id, requestID, "list customers of")
		return
	}

	items := make([]customerResponse, 0, len(enrolled))
	for i := range enrolled {
		items = append(items, toCustomerResponse(&enrolled[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 0, defaultLimit, requestID)
}

func (h *CampaignHandler) writeCampaignError(w http.ResponseWriter, err error, id uuid.UUID, requestID, op string) {
	if errors.Is(err, repo.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Campaign not found", requestID)
		return
	}
	if errors.Is(err, authz.ErrForbidden) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
		return
	}
	slog.Error("failed to "+op+" campaign", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" campaign", requestID)
}
