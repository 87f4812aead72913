package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/api/response"
	"github.com/passforge/passforge/internal/api/validation"
	"github.com/passforge/passforge/internal/authz"
	"github.com/passforge/passforge/internal/customer"
	"github.com/passforge/passforge/internal/pass"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/template"
)

// createPassRequest is the request body for POST /passes.
type createPassRequest struct {
	TemplateID string          `json:"templateId"`
	CustomerID string          `json:"customerId"`
	CampaignID *string         `json:"campaignId"`
	PassData   json.RawMessage `json:"passData"`
	ExpiresAt  *time.Time      `json:"expiresAt"`
}

// updatePassRequest is the request body for PUT /passes/{id}. Absent
// fields are left unchanged.
type updatePassRequest struct {
	PassData   json.RawMessage `json:"passData"`
	CampaignID *string         `json:"campaignId"`
	ExpiresAt  *time.Time      `json:"expiresAt"`
}

// passResponse is the API representation of a wallet pass.
type passResponse struct {
	ID                  string          `json:"id"`
	SerialNumber        string          `json:"serialNumber"`
	PassTypeID          string          `json:"passTypeId"`
	AuthenticationToken string          `json:"authenticationToken"`
	TenantID            string          `json:"tenantId"`
	TemplateID          string          `json:"templateId"`
	CustomerID          string          `json:"customerId"`
	CampaignID          *string         `json:"campaignId"`
	PassData            json.RawMessage `json:"passData"`
	IsVoided            bool            `json:"isVoided"`
	IsRedeemed          bool            `json:"isRedeemed"`
	RedeemedAt          *string         `json:"redeemedAt"`
	ExpiresAt           *string         `json:"expiresAt"`
	CreatedAt           string          `json:"createdAt"`
	UpdatedAt           string          `json:"updatedAt"`
}

func toPassResponse(p *pass.Pass) passResponse {
	data := json.RawMessage(p.PassData)
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return passResponse{
		ID:                  p.ID.String(),
		SerialNumber:        p.SerialNumber,
		PassTypeID:          p.PassTypeID,
		AuthenticationToken: p.AuthenticationToken,
		TenantID:            p.TenantID.String(),
		TemplateID:          p.TemplateID.String(),
		CustomerID:          p.CustomerID.String(),
		CampaignID:          uuidPtrString(p.CampaignID),
		PassData:            data,
		IsVoided:            p.IsVoided,
		IsRedeemed:          p.IsRedeemed,
		RedeemedAt:          formatTimePtr(p.RedeemedAt),
		ExpiresAt:           formatTimePtr(p.ExpiresAt),
		CreatedAt:           formatTime(p.CreatedAt),
		UpdatedAt:           formatTime(p.UpdatedAt),
	}
}

// PassHandler handles wallet pass CRUD and redemption.
type PassHandler struct {
	st         *store.Store
	passes     *pass.Repository
	templates  *template.Repository
	customers  *customer.Repository
	passTypeID string
}

// NewPassHandler creates a new PassHandler. passTypeID is stamped onto
// every issued pass.
func NewPassHandler(st *store.Store, passes *pass.Repository, templates *template.Repository, customers *customer.Repository, passTypeID string) *PassHandler {
	return &PassHandler{
		st:         st,
		passes:     passes,
		templates:  templates,
		customers:  customers,
		passTypeID: passTypeID,
	}
}

// newSerialNumber produces the unique serial stamped on a pass.
func newSerialNumber() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// newAuthenticationToken produces the token wallet clients present when
// fetching pass updates.
func newAuthenticationToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Create handles POST /passes. The template and customer must exist and
// belong to the caller's tenant.
func (h *PassHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createPassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	campaignID := ""
	if req.CampaignID != nil {
		campaignID = *req.CampaignID
	}
	fieldErrors := validation.ValidateCreatePassRequest(validation.CreatePassRequest{
		TemplateID: req.TemplateID,
		CustomerID: req.CustomerID,
		CampaignID: campaignID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	templateID := uuid.MustParse(req.TemplateID)
	customerID := uuid.MustParse(req.CustomerID)

	token, err := newAuthenticationToken()
	if err != nil {
		slog.Error("failed to generate authentication token", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create pass", requestID)
		return
	}

	p := &pass.Pass{
		SerialNumber:        newSerialNumber(),
		PassTypeID:          h.passTypeID,
		AuthenticationToken: token,
		TemplateID:          templateID,
		CustomerID:          customerID,
		PassData:            req.PassData,
		ExpiresAt:           req.ExpiresAt,
	}
	if req.CampaignID != nil {
		cid := uuid.MustParse(*req.CampaignID)
		p.CampaignID = &cid
	}

	var missingRef string
	err = h.st.WithSession(r.Context(), func(sess *store.Session) error {
		tpl, err := h.templates.GetByID(r.Context(), sess, templateID)
		if errors.Is(err, repo.ErrNotFound) {
			missingRef = "Template not found"
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, tpl); err != nil {
			return err
		}

		cust, err := h.customers.GetByID(r.Context(), sess, customerID)
		if errors.Is(err, repo.ErrNotFound) {
			missingRef = "Customer not found"
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}
		if cust.TenantID != tpl.TenantID {
			return authz.ErrForbidden
		}

		p.TenantID = tpl.TenantID
		return h.passes.Create(r.Context(), sess, p)
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
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_SERIAL", "A pass with this serial number already exists", requestID)
			return
		}
		slog.Error("failed to create pass", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create pass", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toPassResponse(p), requestID)
}

// List handles GET /passes, scoped to the caller's tenant. Optional
// ?customerId= and ?campaignId= narrow the result.
func (h *PassHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	skip, limit := pagination(r)

	tenantID, ok := listTenant(identity, r)
	if !ok {
		response.SuccessList(w, http.StatusOK, []passResponse{}, 0, skip, limit, requestID)
		return
	}

	var customerID, campaignID *uuid.UUID
	if v := r.URL.Query().Get("customerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "customerId must be a valid UUID", requestID)
			return
		}
		customerID = &id
	}
	if v := r.URL.Query().Get("campaignId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "campaignId must be a valid UUID", requestID)
			return
		}
		campaignID = &id
	}

	var passes []pass.Pass
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		passes, err = h.passes.ListByTenant(r.Context(), sess, tenantID, customerID, campaignID, skip, limit)
		return err
	})
	if err != nil {
		slog.Error("failed to list passes", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list passes", requestID)
		return
	}

	items := make([]passResponse, 0, len(passes))
	for i := range passes {
		items = append(items, toPassResponse(&passes[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), skip, limit, requestID)
}

// GetByID handles GET /passes/{id}.
func (h *PassHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var p *pass.Pass
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		p, err = h.passes.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		return authz.Authorize(identity, p)
	})
	if err != nil {
		h.writePassError(w, err, id, requestID, "get")
		return
	}

	response.Success(w, http.StatusOK, toPassResponse(p), requestID)
}

// GetBySerial handles GET /passes/serial/{serialNumber}, the lookup
// wallet clients perform when they only hold the pass credential.
// Voided passes are not resolvable this way.
func (h *PassHandler) GetBySerial(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	serial := strings.TrimSpace(chi.URLParam(r, "serialNumber"))
	if serial == "" {
		response.Err(w, http.StatusBadRequest, "INVALID_SERIAL", "serialNumber is required", requestID)
		return
	}

	var p *pass.Pass
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		p, err = h.passes.GetBySerial(r.Context(), sess, serial)
		if err != nil {
			return err
		}
		return authz.Authorize(identity, p)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Pass not found", requestID)
			return
		}
		if errors.Is(err, authz.ErrForbidden) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
			return
		}
		slog.Error("failed to get pass by serial", "error", err, "serialNumber", serial)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get pass", requestID)
		return
	}

	response.Success(w, http.StatusOK, toPassResponse(p), requestID)
}

// Update handles PUT /passes/{id}.
func (h *PassHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updatePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	update := pass.Update{
		PassData:  req.PassData,
		ExpiresAt: req.ExpiresAt,
	}
	if req.CampaignID != nil {
		cid, err := uuid.Parse(*req.CampaignID)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "campaignId must be a valid UUID", requestID)
			return
		}
		update.CampaignID = &cid
	}

	var p *pass.Pass
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		p, err = h.passes.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, p); err != nil {
			return err
		}
		update.Apply(p)
		return h.passes.Update(r.Context(), sess, p)
	})
	if err != nil {
		h.writePassError(w, err, id, requestID, "update")
		return
	}

	response.Success(w, http.StatusOK, toPassResponse(p), requestID)
}

// Delete handles DELETE /passes/{id}. The pass is voided, not removed.
func (h *PassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		p, err := h.passes.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, p); err != nil {
			return err
		}
		return h.passes.Delete(r.Context(), sess, p)
	})
	if err != nil {
		h.writePassError(w, err, id, requestID, "delete")
		return
	}

	response.NoContent(w)
}

// Redeem handles POST /passes/{id}/redeem. A pass redeems exactly once;
// voided and expired passes cannot redeem.
func (h *PassHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	var p *pass.Pass
	var conflict string
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		p, err = h.passes.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(identity, p); err != nil {
			return err
		}

		switch {
		case p.IsVoided:
			conflict = "Pass is voided"
		case p.IsRedeemed:
			conflict = "Pass is already redeemed"
		case p.ExpiresAt != nil && p.ExpiresAt.Before(time.Now().UTC()):
			conflict = "Pass is expired"
		}
		if conflict != "" {
			return nil
		}

		now := time.Now().UTC()
		p.IsRedeemed = true
		p.RedeemedAt = &now
		return h.passes.Update(r.Context(), sess, p)
	})
	if err != nil {
		h.writePassError(w, err, id, requestID, "redeem")
		return
	}
	if conflict != "" {
		response.Err(w, http.StatusConflict, "NOT_REDEEMABLE", conflict, requestID)
		return
	}

	response.Success(w, http.StatusOK, toPassResponse(p), requestID)
}

func (h *PassHandler) writePassError(w http.ResponseWriter, err error, id uuid.UUID, requestID, op string) {
	if errors.Is(err, repo.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Pass not found", requestID)
		return
	}
	if errors.Is(err, authz.ErrForbidden) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
		return
	}
	slog.Error("failed to "+op+" pass", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" pass", requestID)
}
