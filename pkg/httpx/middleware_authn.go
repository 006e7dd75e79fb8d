package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/nexushq/nexus/pkg/jwtx"
	"github.com/nexushq/nexus/pkg/slogx"
)

// AuthnMiddleware verifies a bearer token when one is present and injects
// the resulting identity into the request context. It never rejects: a
// missing, malformed or expired token simply leaves the request anonymous
// so public routes keep working, and the authorization middlewares decide
// whether an identity is required.
//
// Only access tokens establish an identity here. Pending two-factor tokens
// are verified explicitly by the handler that completes the login.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(ctx).Debug("jwt verify failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if err := claims.ValidateUse(jwtx.TokenUseAccess); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRole, c.Role)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}
