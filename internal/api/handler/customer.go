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
	"github.com/passforge/passforge/internal/customer"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// createCustomerRequest is the request body for POST /customers.
type createCustomerRequest struct {
	Email        string          `json:"email"`
	Phone        *string         `json:"phone"`
	FullName     *string         `json:"fullName"`
	TenantID     *string         `json:"tenantId"` // superuser only
	EmailOptIn   *bool           `json:"emailOptIn"`
	SMSOptIn     *bool           `json:"smsOptIn"`
	PushOptIn    *bool           `json:"pushOptIn"`
	Tags         json.RawMessage `json:"tags"`
	CustomFields json.RawMessage `json:"customFields"`
}

// updateCustomerRequest is the request body for PUT /customers/{id}.
// Absent fields are left unchanged.
type updateCustomerRequest struct {
	Email        *string         `json:"email"`
	Phone        *string         `json:"phone"`
	FullName     *string         `json:"fullName"`
	EmailOptIn   *bool           `json:"emailOptIn"`
	SMSOptIn     *bool           `json:"smsOptIn"`
	PushOptIn    *bool           `json:"pushOptIn"`
	Tags         json.RawMessage `json:"tags"`
	CustomFields json.RawMessage `json:"customFields"`
	IsActive     *bool           `json:"isActive"`
}

// customerResponse is the API representation of a customer.
type customerResponse struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	Phone        *string         `json:"phone"`
	FullName     *string         `json:"fullName"`
	TenantID     string          `json:"tenantId"`
	EmailOptIn   bool            `json:"emailOptIn"`
	SMSOptIn     bool            `json:"smsOptIn"`
	PushOptIn    bool            `json:"pushOptIn"`
	Tags         json.RawMessage `json:"tags"`
	CustomFields json.RawMessage `json:"customFields"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

func toCustomerResponse(c *customer.Customer) customerResponse {
	tags := json.RawMessage(c.Tags)
	if len(tags) == 0 {
		tags = json.RawMessage("[]")
	}
	fields := json.RawMessage(c.CustomFields)
	if len(fields) == 0 {
		fields = json.RawMessage("{}")
	}
	return customerResponse{
		ID:           c.ID.String(),
		Email:        c.Email,
		Phone:        c.Phone,
		FullName:     c.FullName,
		TenantID:     c.TenantID.String(),
		EmailOptIn:   c.EmailOptIn,
		SMSOptIn:     c.SMSOptIn,
		PushOptIn:    c.PushOptIn,
		Tags:         tags,
		CustomFields: fields,
		IsActive:     c.IsActive,
		CreatedAt:    formatTime(c.CreatedAt),
		UpdatedAt:    formatTime(c.UpdatedAt),
	}
}

// CustomerHandler handles customer CRUD endpoints.
type CustomerHandler struct {
	st        *store.Store
	customers *customer.Repository
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(st *store.Store, customers *customer.Repository) *CustomerHandler {
	return &CustomerHandler{st: st, customers: customers}
}

// Create handles POST /customers.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidateCreateCustomerRequest(validation.CreateCustomerRequest{
		Email: req.Email,
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

	c := &customer.Customer{
		Email:        req.Email,
		Phone:        req.Phone,
		FullName:     req.FullName,
		TenantID:     tenantID,
		Tags:         req.Tags,
		CustomFields: req.CustomFields,
		IsActive:     true,
	}
	if req.EmailOptIn != nil {
		c.EmailOptIn = *req.EmailOptIn
	}
	if req.SMSOptIn != nil {
		c.SMSOptIn = *req.SMSOptIn
	}
	if req.PushOptIn != nil {
		c.PushOptIn = *req.PushOptIn
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		if _, err := h.customers.GetByEmail(r.Context(), sess, c.TenantID, c.Email); err == nil {
			return repo.ErrConflict
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		return h.customers.Create(r.Context(), sess, c)
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "A customer with this email already exists", requestID)
			return
		}
		slog.Error("failed to create customer", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create customer", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toCustomerResponse(c), requestID)
}

// List handles GET /customers, scoped to the caller's tenant.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	skip, limit := pagination(r)

	tenantID, ok := listTenant(identity, r)
	if !ok {
		response.SuccessList(w, http.StatusOK, []customerResponse{}, 0, skip, limit, requestID)
		return
	}

	var customers []customer.Customer
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		customers, err = h.customers.ListByTenant(r.Context(), sess, tenantID, skip, limit)
		return err
	})
	if err != nil {
		slog.Error("failed to list customers", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list customers", requestID)
		return
	}

	items := make([]customerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, toCustomerResponse(&customers[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), skip, limit, requestID)
}

// GetByID handles GET /customers/{id}.
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var c *customer.Customer
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		c, err = h.customers.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		return authz.Authorize(identity, c)
	})
	if err != nil {
		h.writeCustomerError(w, err, id, requestID, "get")
		return
	}

	response.Success(w, http.StatusOK, toCustomerResponse(c), requestID)
}

// Update handles PUT /customers/{id}.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateCustomerRequest(validation.UpdateCustomerRequest{
		Email: req.Email,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := customer.Update{
		Email:        trimPtr(req.Email),
		Phone:        req.Phone,
		FullName:     req.FullName,
		EmailOptIn:   req.EmailOptIn,
		SMSOptIn:     req.SMSOptIn,
		PushOptIn:    req.PushOptIn,
		Tags:         req.Tags,
		CustomFields: req.CustomFields,
		IsActive:     req.IsActive,
	}

	var c *customer.Customer
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		c, err = h.customers.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, c); err != nil {
			return err
		}
		if update.Email != nil && *update.Email != c.Email {
			if _, err := h.customers.GetByEmail(r.Context(), sess, c.TenantID, *update.Email); err == nil {
				return repo.ErrConflict
			} else if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
		}
		update.Apply(c)
		return h.customers.Update(r.Context(), sess, c)
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "A customer with this email already exists", requestID)
			return
		}
		h.writeCustomerError(w, err, id, requestID, "update")
		return
	}

	response.Success(w, http.StatusOK, toCustomerResponse(c), requestID)
}

// Delete handles DELETE /customers/{id}. Customer rows are removed
// outright.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		c, err := h.customers.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, c); err != nil {
			return err
		}
		return h.customers.Delete(r.Context(), sess, c)
	})
	if err != nil {
		h.writeCustomerError(w, err, id, requestID, "delete")
		return
	}

	response.NoContent(w)
}

func (h *CustomerHandler) writeCustomerError(w http.ResponseWriter, err error, id uuid.UUID, requestID, op string) {
	if errors.Is(err, repo.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Customer not found", requestID)
		return
	}
	if errors.Is(err, authz.ErrForbidden) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
		return
	}
	slog.Error("failed to "+op+" customer", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" customer", requestID)
}
