package http

import (
	"net/http"
	"strings"

	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/pkg/httpx"
)

// AuthHandler serves the public authentication surface.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if res.TwoFactorRequired {
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			Token:             res.Token,
			TokenType:         "Bearer",
			Message:           "Two-factor code required.",
			TwoFactorRequired: true,
		})
		return
	}

	user := toUserResponse(res.User)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		User:        &user,
	})
}

// HandleVerify2FA handles POST /api/auth/verify-2fa. The bearer token here
// is the pending token from login, not an access token.
func (h *AuthHandler) HandleVerify2FA(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	var req verify2FARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.AuthService.Verify2FA(r.Context(), raw, req.VerificationCode, clientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user := toUserResponse(res.User)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		User:        &user,
	})
}

// HandleForgotPassword handles POST /api/auth/forgot-password. The body is
// identical whether or not the email exists.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If the email exists, a reset link has been sent.",
	})
}

// HandleResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "token and newPassword are required")
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated.",
	})
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

func clientIP(r *http.Request) string {
	return httpx.IPKeyExtractor(r)
}
