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
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// createUserRequest is the request body for POST /users.
type createUserRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FullName    *string `json:"fullName"`
	IsActive    *bool   `json:"isActive"`
	IsSuperuser *bool   `json:"isSuperuser"`
	TenantID    *string `json:"tenantId"`
}

// updateUserRequest is the request body for PUT /users/{id} and
// PUT /users/me. Absent fields are left unchanged.
type updateUserRequest struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	FullName    *string `json:"fullName"`
	IsActive    *bool   `json:"isActive"`
	IsSuperuser *bool   `json:"isSuperuser"`
	TenantID    *string `json:"tenantId"`
}

// userResponse is the API representation of a user.
type userResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    *string `json:"fullName"`
	IsActive    bool    `json:"isActive"`
	IsSuperuser bool    `json:"isSuperuser"`
	TenantID    *string `json:"tenantId"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		TenantID:    uuidPtrString(u.TenantID),
		CreatedAt:   formatTime(u.CreatedAt),
		UpdatedAt:   formatTime(u.UpdatedAt),
	}
}

// UserHandler handles user management endpoints.
type UserHandler struct {
	st    *store.Store
	users *auth.Repository
	svc   *auth.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(st *store.Store, users *auth.Repository, svc *auth.Service) *UserHandler {
	return &UserHandler{st: st, users: users, svc: svc}
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var user *auth.User
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		user, err = h.users.GetByID(r.Context(), sess, identity.UserID)
		return err
	})
	if err != nil {
		slog.Error("failed to load current user", "error", err, "id", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(user), requestID)
}

// UpdateMe handles PUT /users/me. Only the caller's own profile fields
// may change; activation, superuser and tenant assignment are ignored.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateUserRequest(validation.UpdateUserRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := auth.UserUpdate{
		Email:    trimPtr(req.Email),
		FullName: req.FullName,
	}
	if req.Password != nil {
		hash, err := h.svc.HashPassword(*req.Password)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user", requestID)
			return
		}
		update.Password = &hash
	}

	var user *auth.User
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		user, err = h.users.GetByID(r.Context(), sess, identity.UserID)
		if err != nil {
			return err
		}
		update.Apply(user)
		return h.users.Update(r.Context(), sess, user)
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email already exists", requestID)
			return
		}
		slog.Error("failed to update current user", "error", err, "id", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user", requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(user), requestID)
}

// List handles GET /users. Superusers see every user; tenant users see
// their own tenant's users. A caller without a tenant gets an empty list.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	skip, limit := pagination(r)

	var users []auth.User
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		switch {
		case identity.IsSuperuser:
			users, err = h.users.List(r.Context(), sess, skip, limit)
		case identity.TenantID != nil:
			users, err = h.users.ListByTenant(r.Context(), sess, *identity.TenantID, skip, limit)
		default:
			users = nil
		}
		return err
	})
	if err != nil {
		slog.Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", requestID)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), skip, limit, requestID)
}

// Create handles POST /users (superuser only).
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		TenantID: req.TenantID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	hash, err := h.svc.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", requestID)
		return
	}

	user := &auth.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		IsActive:     true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.TenantID != nil {
		tenantID := uuid.MustParse(*req.TenantID)
		user.TenantID = &tenantID
	}

	err = h.st.WithSession(r.Context(), func(sess *store.Session) error {
		return h.users.Create(r.Context(), sess, user)
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email already exists", requestID)
			return
		}
		slog.Error("failed to create user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toUserResponse(user), requestID)
}

// GetByID handles GET /users/{id}. Users may read themselves; reading
// anyone else requires superuser.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if id != identity.UserID && !identity.IsSuperuser {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
		return
	}

	var user *auth.User
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		user, err = h.users.GetByID(r.Context(), sess, id)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to get user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get user", requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(user), requestID)
}

// Update handles PUT /users/{id} (superuser only).
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := idParam(r)
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateUserRequest(validation.UpdateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		TenantID: req.TenantID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := auth.UserUpdate{
		Email:       trimPtr(req.Email),
		FullName:    req.FullName,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
	}
	if req.Password != nil {
		hash, err := h.svc.HashPassword(*req.Password)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user", requestID)
			return
		}
		update.Password = &hash
	}
	if req.TenantID != nil {
		tenantID := uuid.MustParse(*req.TenantID)
		update.TenantID = &tenantID
	}

	var user *auth.User
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		user, err = h.users.GetByID(r.Context(), sess, id)
		if err != nil {
			return err
		}
		update.Apply(user)
		return h.users.Update(r.Context(), sess, user)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email already exists", requestID)
			return
		}
		slog.Error("failed to update user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user", requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(user), requestID)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
