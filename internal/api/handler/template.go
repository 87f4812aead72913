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
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/template"
)

// createTemplateRequest is the request body for POST /templates.
type createTemplateRequest struct {
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	PassType        string          `json:"passType"`
	TenantID        *string         `json:"tenantId"` // superuser only
	Design          json.RawMessage `json:"design"`
	BackgroundColor *string         `json:"backgroundColor"`
	ForegroundColor *string         `json:"foregroundColor"`
	LabelColor      *string         `json:"labelColor"`
	LogoImage       *string         `json:"logoImage"`
	IconImage       *string         `json:"iconImage"`
	NFCEnabled      *bool           `json:"nfcEnabled"`
	NFCMessage      *string         `json:"nfcMessage"`
}

// updateTemplateRequest is the request body for PUT /templates/{id}.
// Absent fields are left unchanged.
type updateTemplateRequest struct {
	Name            *string         `json:"name"`
	Description     *string         `json:"description"`
	PassType        *string         `json:"passType"`
	Design          json.RawMessage `json:"design"`
	BackgroundColor *string         `json:"backgroundColor"`
	ForegroundColor *string         `json:"foregroundColor"`
	LabelColor      *string         `json:"labelColor"`
	LogoImage       *string         `json:"logoImage"`
	IconImage       *string         `json:"iconImage"`
	NFCEnabled      *bool           `json:"nfcEnabled"`
	NFCMessage      *string         `json:"nfcMessage"`
	IsActive        *bool           `json:"isActive"`
}

// templateResponse is the API representation of a pass template.
type templateResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	PassType        string          `json:"passType"`
	TenantID        string          `json:"tenantId"`
	CreatedBy       string          `json:"createdBy"`
	Design          json.RawMessage `json:"design"`
	BackgroundColor *string         `json:"backgroundColor"`
	ForegroundColor *string         `json:"foregroundColor"`
	LabelColor      *string         `json:"labelColor"`
	LogoImage       *string         `json:"logoImage"`
	IconImage       *string         `json:"iconImage"`
	NFCEnabled      bool            `json:"nfcEnabled"`
	NFCMessage      *string         `json:"nfcMessage"`
	IsActive        bool            `json:"isActive"`
	IsArchived      bool            `json:"isArchived"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

func toTemplateResponse(t *template.Template) templateResponse {
	design := json.RawMessage(t.Design)
	if len(design) == 0 {
		design = json.RawMessage("{}")
	}
	return templateResponse{
		ID:              t.ID.String(),
		Name:            t.Name,
		Description:     t.Description,
		PassType:        t.PassType,
		TenantID:        t.TenantID.String(),
		CreatedBy:       t.CreatedBy.String(),
		Design:          design,
		BackgroundColor: t.BackgroundColor,
		ForegroundColor: t.ForegroundColor,
		LabelColor:      t.LabelColor,
		LogoImage:       t.LogoImage,
		IconImage:       t.IconImage,
		NFCEnabled:      t.NFCEnabled,
		NFCMessage:      t.NFCMessage,
		IsActive:        t.IsActive,
		IsArchived:      t.IsArchived,
		CreatedAt:       formatTime(t.CreatedAt),
		UpdatedAt:       formatTime(t.UpdatedAt),
	}
}

// TemplateHandler handles pass template CRUD endpoints.
type TemplateHandler struct {
	st        *store.Store
	templates *template.Repository
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(st *store.Store, templates *template.Repository) *TemplateHandler {
	return &TemplateHandler{st: st, templates: templates}
}

// Create handles POST /templates.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateTemplateRequest(validation.CreateTemplateRequest{
		Name:            req.Name,
		PassType:        req.PassType,
		BackgroundColor: req.BackgroundColor,
		ForegroundColor: req.ForegroundColor,
		LabelColor:      req.LabelColor,
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

	t := &template.Template{
		Name:            req.Name,
		Description:     req.Description,
		PassType:        template.TypeGeneric,
		TenantID:        tenantID,
		CreatedBy:       identity.UserID,
		Design:          req.Design,
		BackgroundColor: req.BackgroundColor,
		ForegroundColor: req.ForegroundColor,
		LabelColor:      req.LabelColor,
		LogoImage:       req.LogoImage,
		IconImage:       req.IconImage,
		NFCMessage:      req.NFCMessage,
		IsActive:        true,
	}
	if req.PassType != "" {
		t.PassType = req.PassType
	}
	if req.NFCEnabled != nil {
		t.NFCEnabled = *req.NFCEnabled
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		return h.templates.Create(r.Context(), sess, t)
	})
	if err != nil {
		slog.Error("failed to create template", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create template", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTemplateResponse(t), requestID)
}

// List handles GET /templates. Results are scoped to the caller's
// tenant; superusers may select one with ?tenantId=.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	skip, limit := pagination(r)

	tenantID, ok := listTenant(identity, r)
	if !ok {
		response.SuccessList(w, http.StatusOK, []templateResponse{}, 0, skip, limit, requestID)
		return
	}

	var templates []template.Template
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		templates, err = h.templates.ListByTenant(r.Context(), sess, tenantID, skip, limit)
		return err
	})
	if err != nil {
		slog.Error("failed to list templates", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list templates", requestID)
		return
	}

	items := make([]templateResponse, 0, len(templates))
	for i := range templates {
		items = append(items, toTemplateResponse(&templates[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), skip, limit, requestID)
}

// GetByID handles GET /templates/{id}.
func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var t *template.Template
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		t, err = h.templates.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		return authz.Authorize(identity, t)
	})
	if err != nil {
		h.writeTemplateError(w, err, id, requestID, "get")
		return
	}

	response.Success(w, http.StatusOK, toTemplateResponse(t), requestID)
}

// Update handles PUT /templates/{id}.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateTemplateRequest(validation.UpdateTemplateRequest{
		PassType:        req.PassType,
		BackgroundColor: req.BackgroundColor,
		ForegroundColor: req.ForegroundColor,
		LabelColor:      req.LabelColor,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := template.Update{
		Name:            trimPtr(req.Name),
		Description:     req.Description,
		PassType:        req.PassType,
		Design:          req.Design,
		BackgroundColor: req.BackgroundColor,
		ForegroundColor: req.ForegroundColor,
		LabelColor:      req.LabelColor,
		LogoImage:       req.LogoImage,
		IconImage:       req.IconImage,
		NFCEnabled:      req.NFCEnabled,
		NFCMessage:      req.NFCMessage,
		IsActive:        req.IsActive,
	}

	var t *template.Template
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		t, err = h.templates.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, t); err != nil {
			return err
		}
		update.Apply(t)
		return h.templates.Update(r.Context(), sess, t)
	})
	if err != nil {
		h.writeTemplateError(w, err, id, requestID, "update")
		return
	}

	response.Success(w, http.StatusOK, toTemplateResponse(t), requestID)
}

// Delete handles DELETE /templates/{id}. The template is archived, not
// removed.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		t, err := h.templates.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, t); err != nil {
			return err
		}
		return h.templates.Delete(r.Context(), sess, t)
	})
	if err != nil {
		h.writeTemplateError(w, err, id, requestID, "delete")
		return
	}

	response.NoContent(w)
}

func (h *TemplateHandler) writeTemplateError(w http.ResponseWriter, err error, id uuid.UUID, requestID, op string) {
	if errors.Is(err, repo.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Template not found", requestID)
		return
	}
	if errors.Is(err, authz.ErrForbidden) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
		return
	}
	slog.Error("failed to "+op+" template", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" template", requestID)
}
