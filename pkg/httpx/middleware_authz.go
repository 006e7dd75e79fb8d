package httpx

import "net/http"

// RequireAuthenticated rejects requests with no verified identity.
func RequireAuthenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				writeBearerError(w, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole the caller must hold one of the listed roles. Anonymous
// callers get 401, authenticated callers with the wrong role get 403.
func RequireRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				writeBearerError(w, "authentication required")
				return
			}
			if _, ok := want[RoleFromContext(r.Context())]; !ok {
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error": "forbidden",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error": "unauthorized",
	})
}
