package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/internal/storage"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/httpx"
	"github.com/nexushq/nexus/pkg/jwtx"
	"github.com/nexushq/nexus/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService      *service.AuthService
	UserService      *service.UserService
	TwoFactorService *service.TwoFactorService
	RolesService     *service.RolesService
	AuditService     *service.AuditService
	ReportsService   *service.ReportsService
	Files            storage.FileStore
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
	}

	// Global chain: request logging first, then optional authentication.
	// Authn only attaches identity; the per-route authz middlewares below
	// decide who gets in.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.AuthnMiddleware(r.verifier),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerUsers()
	r.registerRoles()
	r.registerLogs()
	r.registerReports()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential-bearing endpoints are rate limited hard, by IP.
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/verify-2fa",
		httpx.Chain(http.HandlerFunc(h.HandleVerify2FA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{
		UserService:      r.UserService,
		TwoFactorService: r.TwoFactorService,
	}
	authed := httpx.RequireAuthenticated()

	r.Mux.Handle("GET /api/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			authed, httpx.RateLimitByUser(httpx.LenientLimit)))
	r.Mux.Handle("PATCH /api/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			authed, httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("PATCH /api/users/me/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			authed, httpx.RateLimitByUser(httpx.StrictLimit)))
	r.Mux.Handle("POST /api/users/me/avatar",
		httpx.Chain(http.HandlerFunc(h.HandleAvatarUpload),
			authed, httpx.RateLimitByUser(httpx.ModerateLimit)))

	r.Mux.Handle("POST /api/users/me/2fa/generate",
		httpx.Chain(http.HandlerFunc(h.HandleGenerate2FA),
			authed, httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("POST /api/users/me/2fa/enable",
		httpx.Chain(http.HandlerFunc(h.HandleEnable2FA),
			authed, httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("POST /api/users/me/2fa/disable",
		httpx.Chain(http.HandlerFunc(h.HandleDisable2FA),
			authed, httpx.RateLimitByUser(httpx.ModerateLimit)))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}
	av := &AvatarsHandler{Files: r.Files}

	adminOnly := httpx.RequireRole(domain.RoleAdmin)
	adminOrSupervisor := httpx.RequireRole(domain.RoleAdmin, domain.RoleSupervisor)

	// Avatars are public reads; the filenames are unguessable.
	r.Mux.Handle("GET /api/users/avatars/{file}",
		httpx.Chain(http.HandlerFunc(av.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit)))

	r.Mux.Handle("GET /api/users/all",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			adminOrSupervisor, httpx.RateLimitByUser(httpx.LenientLimit)))
	r.Mux.Handle("GET /api/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			adminOrSupervisor, httpx.RateLimitByUser(httpx.LenientLimit)))

	// Mutations stay admin-only even though supervisors can read.
	r.Mux.Handle("POST /api/users/create",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			adminOnly, httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("PUT /api/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			adminOnly, httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("DELETE /api/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			adminOnly, httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("PATCH /api/users/{id}/toggle-status",
		httpx.Chain(http.HandlerFunc(h.HandleToggleStatus),
			adminOnly, httpx.RateLimitByUser(httpx.ModerateLimit)))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	r.Mux.Handle("GET /api/roles/all",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RequireRole(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.LenientLimit)))
}

func (r *Router) registerLogs() {
	h := &LogsHandler{AuditService: r.AuditService}

	r.Mux.Handle("GET /api/logs",
		httpx.Chain(http.HandlerFunc(h.HandleQuery),
			httpx.RequireRole(domain.RoleAdmin, domain.RoleSupervisor),
			httpx.RateLimitByUser(httpx.LenientLimit)))
}

func (r *Router) registerReports() {
	h := &ReportsHandler{ReportsService: r.ReportsService}
	authz := httpx.RequireRole(domain.RoleAdmin, domain.RoleSupervisor)

	r.Mux.Handle("GET /api/reports/summary",
		httpx.Chain(http.HandlerFunc(h.HandleSummary),
			authz, httpx.RateLimitByUser(httpx.LenientLimit)))
	r.Mux.Handle("GET /api/reports/users-by-role",
		httpx.Chain(http.HandlerFunc(h.HandleUsersByRole),
			authz, httpx.RateLimitByUser(httpx.LenientLimit)))
	r.Mux.Handle("GET /api/reports/monthly-registrations",
		httpx.Chain(http.HandlerFunc(h.HandleMonthlyRegistrations),
			authz, httpx.RateLimitByUser(httpx.LenientLimit)))

	// Exports render whole documents; keep the limit moderate.
	r.Mux.Handle("GET /api/reports/export/pdf",
		httpx.Chain(http.HandlerFunc(h.HandleExportPDF),
			authz, httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("GET /api/reports/export/excel",
		httpx.Chain(http.HandlerFunc(h.HandleExportExcel),
			authz, httpx.RateLimitByUser(httpx.ModerateLimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
}
