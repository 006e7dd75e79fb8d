package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/nexushq/nexus/internal/export"
	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/pkg/httpx"
)

type ReportsHandler struct {
	ReportsService *service.ReportsService
}

// HandleSummary handles GET /api/reports/summary.
func (h *ReportsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ReportsService.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summaryResponse{
		TotalUsers:    summary.TotalUsers,
		ActiveUsers:   summary.ActiveUsers,
		InactiveUsers: summary.InactiveUsers,
	})
}

// HandleUsersByRole handles GET /api/reports/users-by-role.
func (h *ReportsHandler) HandleUsersByRole(w http.ResponseWriter, r *http.Request) {
	counts, err := h.ReportsService.UsersByRole(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, counts)
}

// HandleMonthlyRegistrations handles GET /api/reports/monthly-registrations.
func (h *ReportsHandler) HandleMonthlyRegistrations(w http.ResponseWriter, r *http.Request) {
	months, err := h.ReportsService.MonthlyRegistrations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]monthlyRegistrationsResponse, 0, len(months))
	for _, m := range months {
		out = append(out, monthlyRegistrationsResponse{Year: m.Year, Month: m.Month, Count: m.Count})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleExportPDF handles GET /api/reports/export/pdf.
func (h *ReportsHandler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	users, err := h.ReportsService.Roster(r.Context(), httpx.RoleFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRosterPDF(&buf, users, time.Now().UTC()); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="users.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

// HandleExportExcel handles GET /api/reports/export/excel.
func (h *ReportsHandler) HandleExportExcel(w http.ResponseWriter, r *http.Request) {
	users, err := h.ReportsService.Roster(r.Context(), httpx.RoleFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRosterExcel(&buf, users); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="users.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
