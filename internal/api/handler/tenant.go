package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/api/response"
	"github.com/passforge/passforge/internal/api/validation"
	"github.com/passforge/passforge/internal/authz"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/tenant"
)

// createTenantRequest is the request body for POST /tenants.
type createTenantRequest struct {
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	Description      *string `json:"description"`
	LogoURL          *string `json:"logoUrl"`
	Website          *string `json:"website"`
	ContactEmail     *string `json:"contactEmail"`
	ContactPhone     *string `json:"contactPhone"`
	Address          *string `json:"address"`
	City             *string `json:"city"`
	Country          *string `json:"country"`
	PostalCode       *string `json:"postalCode"`
	SubscriptionTier string  `json:"subscriptionTier"`
	MaxPasses        *int    `json:"maxPasses"`
}

// updateTenantRequest is the request body for PUT /tenants/{id}. Absent
// fields are left unchanged.
type updateTenantRequest struct {
	Name               *string `json:"name"`
	Slug               *string `json:"slug"`
	Description        *string `json:"description"`
	LogoURL            *string `json:"logoUrl"`
	Website            *string `json:"website"`
	ContactEmail       *string `json:"contactEmail"`
	ContactPhone       *string `json:"contactPhone"`
	Address            *string `json:"address"`
	City               *string `json:"city"`
	Country            *string `json:"country"`
	PostalCode         *string `json:"postalCode"`
	IsActive           *bool   `json:"isActive"`
	SubscriptionTier   *string `json:"subscriptionTier"`
	SubscriptionStatus *string `json:"subscriptionStatus"`
	MaxPasses          *int    `json:"maxPasses"`
}

// tenantResponse is the API representation of a tenant.
type tenantResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Slug               string  `json:"slug"`
	Description        *string `json:"description"`
	LogoURL            *string `json:"logoUrl"`
	Website            *string `json:"website"`
	ContactEmail       *string `json:"contactEmail"`
	ContactPhone       *string `json:"contactPhone"`
	Address            *string `json:"address"`
	City               *string `json:"city"`
	Country            *string `json:"country"`
	PostalCode         *string `json:"postalCode"`
	IsActive           bool    `json:"isActive"`
	SubscriptionTier   string  `json:"subscriptionTier"`
	SubscriptionStatus string  `json:"subscriptionStatus"`
	MaxPasses          int     `json:"maxPasses"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:                 t.ID.String(),
		Name:               t.Name,
		Slug:               t.Slug,
		Description:        t.Description,
		LogoURL:            t.LogoURL,
		Website:            t.Website,
		ContactEmail:       t.ContactEmail,
		ContactPhone:       t.ContactPhone,
		Address:            t.Address,
		City:               t.City,
		Country:            t.Country,
		PostalCode:         t.PostalCode,
		IsActive:           t.IsActive,
		SubscriptionTier:   t.SubscriptionTier,
		SubscriptionStatus: t.SubscriptionStatus,
		MaxPasses:          t.MaxPasses,
		CreatedAt:          formatTime(t.CreatedAt),
		UpdatedAt:          formatTime(t.UpdatedAt),
	}
}

// TenantHandler handles tenant management endpoints.
type TenantHandler struct {
	st      *store.Store
	tenants *tenant.Repository
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(st *store.Store, tenants *tenant.Repository) *TenantHandler {
	return &TenantHandler{st: st, tenants: tenants}
}

// List handles GET /tenants (superuser only).
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var tenants []tenant.Tenant
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		tenants, err = h.tenants.List(r.Context(), sess)
		return err
	})
	if err != nil {
		slog.Error("failed to list tenants", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tenants", requestID)
		return
	}

	items := make([]tenantResponse, 0, len(tenants))
	for i := range tenants {
		items = append(items, toTenantResponse(&tenants[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 0, defaultLimit, requestID)
}

// Create handles POST /tenants (superuser only).
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)

	fieldErrors := validation.ValidateCreateTenantRequest(validation.CreateTenantRequest{
		Name:             req.Name,
		Slug:             req.Slug,
		SubscriptionTier: req.SubscriptionTier,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &tenant.Tenant{
		Name:               req.Name,
		Slug:               req.Slug,
		Description:        req.Description,
		LogoURL:            req.LogoURL,
		Website:            req.Website,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		Address:            req.Address,
		City:               req.City,
		Country:            req.Country,
		PostalCode:         req.PostalCode,
		IsActive:           true,
		SubscriptionTier:   tenant.TierFree,
		SubscriptionStatus: tenant.StatusActive,
		MaxPasses:          1000,
	}
	if req.SubscriptionTier != "" {
		t.SubscriptionTier = req.SubscriptionTier
	}
	if req.MaxPasses != nil {
		t.MaxPasses = *req.MaxPasses
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		if _, err := h.tenants.GetBySlug(r.Context(), sess, t.Slug); err == nil {
			return repo.ErrConflict
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		return h.tenants.Create(r.Context(), sess, t)
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_SLUG", "A tenant with this slug already exists", requestID)
			return
		}
		slog.Error("failed to create tenant", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create tenant", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTenantResponse(t), requestID)
}

// My handles GET /tenants/my. Returns the caller's own tenant.
func (h *TenantHandler) My(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	if identity.TenantID == nil {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "User does not belong to a tenant", requestID)
		return
	}

	var t *tenant.Tenant
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		t, err = h.tenants.GetByID(r.Context(), sess, *identity.TenantID)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
			return
		}
		slog.Error("failed to get tenant", "error", err, "id", identity.TenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get tenant", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}

// GetByID handles GET /tenants/{id}. Tenant members may read their own
// tenant; anything else requires superuser.
func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var t *tenant.Tenant
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		t, err = h.tenants.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		return authz.Authorize(identity, t)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
			return
		}
		if errors.Is(err, authz.ErrForbidden) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
			return
		}
		slog.Error("failed to get tenant", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get tenant", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}

// Update handles PUT /tenants/{id}. Tenant members may update their own
// tenant; subscription fields only change for superusers.
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateTenantRequest(validation.UpdateTenantRequest{
		Slug:               req.Slug,
		SubscriptionTier:   req.SubscriptionTier,
		SubscriptionStatus: req.SubscriptionStatus,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := tenant.Update{
		Name:         trimPtr(req.Name),
		Slug:         trimPtr(req.Slug),
		Description:  req.Description,
		LogoURL:      req.LogoURL,
		Website:      req.Website,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		PostalCode:   req.PostalCode,
	}
	if identity.IsSuperuser {
		update.IsActive = req.IsActive
		update.SubscriptionTier = req.SubscriptionTier
		update.SubscriptionStatus = req.SubscriptionStatus
		update.MaxPasses = req.MaxPasses
	}

	var t *tenant.Tenant
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		t, err = h.tenants.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, t); err != nil {
			return err
		}
		if update.Slug != nil && *update.Slug != t.Slug {
			if _, err := h.tenants.GetBySlug(r.Context(), sess, *update.Slug); err == nil {
				return repo.ErrConflict
			} else if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
		}
		update.Apply(t)
		return h.tenants.Update(r.Context(), sess, t)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
			return
		}
		if errors.Is(err, authz.ErrForbidden) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
			return
		}
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_SLUG", "A tenant with this slug already exists", requestID)
			return
		}
		slog.Error("failed to update tenant", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update tenant", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}
