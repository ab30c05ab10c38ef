package transport

import (
	"net/http"

	"inventory-api/internal/domain"
	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role"`
	Avatar    *int   `json:"avatar"`
	AdminCode string `json:"adminCode"`
}

// LoginRequest represents the login request payload. Missing fields are
// treated as wrong credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MeResponse is the caller's profile, or a guest profile for anonymous callers
type MeResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Avatar    string      `json:"avatar"`
	Role      domain.Role `json:"role,omitempty"`
	Anonymous bool        `json:"anonymous,omitempty"`
}

// guestProfile is returned by /api/me when no session resolves
var guestProfile = MeResponse{Name: "Guest", Avatar: "avatar-guest", Anonymous: true}

// AuthHandler handles HTTP requests for sessions and accounts
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the account routes. limit guards the credential
// endpoints and may be nil.
func (h *AuthHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/api/login", h.Login)
		r.Post("/api/register", h.Register)
	})
	r.Get("/api/me", h.Me)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", result.User.ID))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		Avatar:    req.Avatar,
		AdminCode: req.AdminCode,
	})
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// Me returns the profile behind the bearer token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if !identity.Authenticated() {
		middleware.RespondWithJSON(w, http.StatusOK, guestProfile)
		return
	}

	u := identity.User
	middleware.RespondWithJSON(w, http.StatusOK, MeResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
		Role:   u.Role,
	})
}
