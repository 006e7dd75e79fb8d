package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/pkg/httpx"
)

type LogsHandler struct {
	AuditService *service.AuditService
}

// HandleQuery handles GET /api/logs. Supported query parameters:
// eventType, username, targetUsername, startDate, endDate (YYYY-MM-DD),
// page, size and sort ("field,dir").
func (h *LogsHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := service.QueryParams{
		EventType:      q.Get("eventType"),
		Username:       q.Get("username"),
		TargetUsername: q.Get("targetUsername"),
	}

	var err error
	if params.StartDate, err = optionalDateParam(q.Get("startDate")); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	if params.EndDate, err = optionalDateParam(q.Get("endDate")); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}

	if v := q.Get("page"); v != "" {
		if params.Page, err = strconv.Atoi(v); err != nil || params.Page < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "page must be a non-negative integer")
			return
		}
	}
	if v := q.Get("size"); v != "" {
		if params.Size, err = strconv.Atoi(v); err != nil || params.Size <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "size must be a positive integer")
			return
		}
	}
	params.Sort = parseSort(q.Get("sort"))

	page, err := h.AuditService.Query(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	entries := make([]logEntryResponse, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, logEntryResponse{
			ID:             string(e.ID),
			CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
			EventType:      e.EventType,
			Username:       e.Username,
			TargetUsername: e.TargetUsername,
			Description:    e.Description,
			Result:         e.Result,
			IPAddress:      e.IPAddress,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, pageResponse{
		Content:       entries,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages(),
	})
}

func optionalDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseSort parses "field,dir". Unknown fields fall back to the store's
// default order (newest first).
func parseSort(s string) domain.LogSort {
	if s == "" {
		return domain.LogSort{}
	}
	field, dir, _ := strings.Cut(s, ",")
	return domain.LogSort{
		Field: strings.TrimSpace(field),
		Desc:  strings.EqualFold(strings.TrimSpace(dir), "desc"),
	}
}
