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
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// refreshRequest is the request body for POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// registerRequest is the request body for POST /auth/register.
type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"fullName"`
}

// AuthHandler handles login, token refresh and self registration.
type AuthHandler struct {
	st  *store.Store
	svc *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, svc *auth.Service) *AuthHandler {
	return &AuthHandler{st: st, svc: svc}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var pair auth.TokenPair
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		pair, err = h.svc.Login(r.Context(), sess, req.Username, req.Password)
		return err
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect email or password", requestID)
			return
		}
		if errors.Is(err, auth.ErrInactive) {
			response.Err(w, http.StatusUnauthorized, "INACTIVE_USER", "Inactive user", requestID)
			return
		}
		slog.Error("failed to log in", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in", requestID)
		return
	}

	response.Success(w, http.StatusOK, pair, requestID)
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateRefreshRequest(validation.RefreshRequest{
		RefreshToken: req.RefreshToken,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var pair auth.TokenPair
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		pair, err = h.svc.Refresh(r.Context(), sess, req.RefreshToken)
		return err
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			response.Err(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid refresh token", requestID)
			return
		}
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		if errors.Is(err, auth.ErrInactive) {
			response.Err(w, http.StatusBadRequest, "INACTIVE_USER", "Inactive user", requestID)
			return
		}
		slog.Error("failed to refresh tokens", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to refresh tokens", requestID)
		return
	}

	response.Success(w, http.StatusOK, pair, requestID)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidateRegisterRequest(validation.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var user *auth.User
	err := h.st.WithSession(r.Context(), func(sess *store.Session) error {
		var err error
		user, err = h.svc.Register(r.Context(), sess, req.Email, req.Password, req.FullName)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email already exists", requestID)
			return
		}
		slog.Error("failed to register user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toUserResponse(user), requestID)
}
