package http

import (
	"net/http"
	"time"

	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/pkg/httpx"
	"github.com/nexushq/nexus/pkg/idx"
)

// UsersHandler serves the administrative user surface.
type UsersHandler struct {
	UserService *service.UserService
}

func actorFromRequest(r *http.Request) service.Actor {
	ctx := r.Context()
	actor := service.Actor{
		ID:   idx.ID(httpx.UserIDFromContext(ctx)),
		Role: httpx.RoleFromContext(ctx),
		IP:   clientIP(r),
	}
	if claims, ok := httpx.ClaimsFromContext(ctx); ok {
		actor.Username = claims.Username
	}
	return actor
}

// HandleList handles GET /api/users/all. Supervisors get the filtered
// roster; the filter lives in the service.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context(), httpx.RoleFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponses(users))
}

// HandleGet handles GET /api/users/{id}.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	user, err := h.UserService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleCreate handles POST /api/users/create.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		httpx.WriteError(w, http.StatusBadRequest, "username, email, password and role are required")
		return
	}

	var birth *time.Time
	if req.BirthDate != nil {
		d, err := parseDate(*req.BirthDate)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "birthDate must be YYYY-MM-DD")
			return
		}
		birth = &d
	}

	user, err := h.UserService.Create(r.Context(), service.CreateUserParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DNI:         req.DNI,
		BirthDate:   birth,
		PhoneNumber: req.PhoneNumber,
		RoleName:    req.Role,
	}, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleUpdate handles PUT /api/users/{id}. Partial: absent fields stay
// as they are, and the last write wins.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var birth *time.Time
	if req.BirthDate != nil {
		d, err := parseDate(*req.BirthDate)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "birthDate must be YYYY-MM-DD")
			return
		}
		birth = &d
	}

	user, err := h.UserService.Update(r.Context(), id, service.UpdateUserParams{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DNI:         req.DNI,
		BirthDate:   birth,
		PhoneNumber: req.PhoneNumber,
		RoleName:    req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDelete handles DELETE /api/users/{id}.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.UserService.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted."})
}

// HandleToggleStatus handles PATCH /api/users/{id}/toggle-status.
func (h *UsersHandler) HandleToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	user, err := h.UserService.ToggleStatus(r.Context(), id, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}
