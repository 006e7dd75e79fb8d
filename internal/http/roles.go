package http

import (
	"net/http"

	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/pkg/httpx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// HandleList handles GET /api/roles/all.
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RolesService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: string(role.ID), Name: role.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
