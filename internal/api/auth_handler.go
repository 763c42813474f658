package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskdigest-api/internal/api/shared"
	"github.com/phrazzld/taskdigest-api/internal/platform/logger"
	"github.com/phrazzld/taskdigest-api/internal/service"
)

// AuthHandler handles registration, email verification and login.
type AuthHandler struct {
	accounts service.AccountService
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(accounts service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RegisterResponse{
		Message: "Registration successful. Please verify your email.",
		Email:   res.Email,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Message:     "Login successful",
		AccessToken: res.Token,
		UserID:      res.UserID,
		ExpiresAt:   res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// VerifyEmail handles GET /api/verify_email/{token} and renders an HTML page.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	result := h.accounts.Verify(r.Context(), chi.URLParam(r, "token"))

	log := logger.FromContextOrDefault(r.Context(), slog.Default())
	log.Info("email verification attempt",
		"status", result.Status,
		"reason", result.Reason)

	if err := renderVerificationPage(w, r, result); err != nil {
		log.Error("failed to render verification page", "error", err)
	}
}
