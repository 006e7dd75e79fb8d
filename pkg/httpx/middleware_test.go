package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nexushq/nexus/pkg/httpx"
	"github.com/nexushq/nexus/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "nexus-test"

func testAuthStack(t *testing.T) (*jwtx.EdDSASigner, httpx.Middleware) {
	t.Helper()

	signer, err := jwtx.NewEphemeralSigner("test-key")
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	return signer, httpx.AuthnMiddleware(jwtx.NewVerifier(keys, testIssuer))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func accessToken(t *testing.T, signer *jwtx.EdDSASigner, role string) string {
	t.Helper()
	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", role, "alice",
		"alice@example.com", testIssuer, time.Hour, time.Now()))
	require.NoError(t, err)
	return token
}

func TestAuthnMiddlewarePopulatesIdentity(t *testing.T) {
	t.Parallel()
	signer, authn := testAuthStack(t)

	var gotUser, gotRole string
	h := authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = httpx.UserIDFromContext(r.Context())
		gotRole = httpx.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, signer, "ADMIN"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "user-1", gotUser)
	require.Equal(t, "ADMIN", gotRole)
}

func TestAuthnMiddlewareNeverRejects(t *testing.T) {
	t.Parallel()
	signer, authn := testAuthStack(t)

	pending, err := signer.Sign(jwtx.NewPendingClaims("user-1",
		"alice@example.com", testIssuer, time.Minute, time.Now()))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-jwt"},
		{"pending token", pending},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			h := authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = httpx.UserIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			// Anonymous, but the request still reached the handler.
			require.Equal(t, http.StatusOK, rec.Code)
			require.Empty(t, gotUser)
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	t.Parallel()
	signer, authn := testAuthStack(t)
	h := httpx.Chain(okHandler(), authn, httpx.RequireAuthenticated())

	t.Run("anonymous gets 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("authenticated passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, signer, "EMPLOYEE"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	signer, authn := testAuthStack(t)
	h := httpx.Chain(okHandler(), authn, httpx.RequireRole("ADMIN", "SUPERVISOR"))

	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin allowed", "ADMIN", http.StatusOK},
		{"supervisor allowed", "SUPERVISOR", http.StatusOK},
		{"employee forbidden", "EMPLOYEE", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+accessToken(t, signer, tc.role))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}

	t.Run("anonymous gets 401 not 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("first"), mw("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second"}, order)
}
