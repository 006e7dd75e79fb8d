package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/nexushq/nexus/internal/storage"
	"github.com/nexushq/nexus/pkg/httpx"
)

// AvatarsHandler serves stored avatar files publicly.
type AvatarsHandler struct {
	Files storage.FileStore
}

// HandleGet handles GET /api/users/avatars/{file}.
func (h *AvatarsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")

	f, err := h.Files.Open(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, f)
}
