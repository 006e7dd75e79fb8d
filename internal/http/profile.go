package http

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/pkg/httpx"
	"github.com/nexushq/nexus/pkg/idx"
)

const maxAvatarBytes = 5 << 20

// ProfileHandler serves the authenticated user's own account: profile,
// password change, avatar and 2FA self-service.
type ProfileHandler struct {
	UserService      *service.UserService
	TwoFactorService *service.TwoFactorService
}

func currentUserID(r *http.Request) idx.ID {
	return idx.ID(httpx.UserIDFromContext(r.Context()))
}

// HandleGet handles GET /api/users/me.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.Get(r.Context(), currentUserID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleUpdate handles PATCH /api/users/me.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), currentUserID(r), service.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DNI:         req.DNI,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleChangePassword handles PATCH /api/users/me/change-password.
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}

	err := h.UserService.ChangePassword(r.Context(), currentUserID(r),
		req.CurrentPassword, req.NewPassword, clientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated."})
}

// HandleAvatarUpload handles POST /api/users/me/avatar (multipart form,
// field "file").
func (h *ProfileHandler) HandleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	url, err := h.UserService.SetAvatar(r.Context(), currentUserID(r),
		file, avatarExt(header), clientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"avatarUrl": url})
}

func avatarExt(header *multipart.FileHeader) string {
	return filepath.Ext(header.Filename)
}

// HandleGenerate2FA handles POST /api/users/me/2fa/generate. The body is
// the bare otpauth:// provisioning URI, ready to render as a QR code.
func (h *ProfileHandler) HandleGenerate2FA(w http.ResponseWriter, r *http.Request) {
	prov, err := h.TwoFactorService.Generate(r.Context(), currentUserID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, prov.OtpauthURI)
}

// HandleEnable2FA handles POST /api/users/me/2fa/enable.
func (h *ProfileHandler) HandleEnable2FA(w http.ResponseWriter, r *http.Request) {
	var req verificationCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.TwoFactorService.Enable(r.Context(), currentUserID(r), req.VerificationCode); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Two-factor authentication enabled."})
}

// HandleDisable2FA handles POST /api/users/me/2fa/disable.
func (h *ProfileHandler) HandleDisable2FA(w http.ResponseWriter, r *http.Request) {
	var req verificationCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.TwoFactorService.Disable(r.Context(), currentUserID(r), req.VerificationCode); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Two-factor authentication disabled."})
}
