package web

import (
	"chat-rooms/auth"
	"chat-rooms/domain"
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const ctxIdentityKey ctxKey = "identity"

// CookieName holds the JWT for browser clients; API clients use the
// Authorization header instead.
const CookieName = "auth"

// IdentityFromContext returns the identity resolved by WithIdentity. The
// zero value reports IsAuthenticated == false.
func IdentityFromContext(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(ctxIdentityKey).(domain.Identity)
	return identity
}

// WithIdentity resolves the caller's identity from a bearer token, the auth
// cookie or a token query parameter, in that order. It never rejects the
// request itself: handlers decide what an anonymous caller may do.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(CookieName); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		identity := domain.Identity{}
		if token != "" {
			if claims, err := auth.ValidateToken(token); err == nil {
				identity = domain.Identity{
					IsAuthenticated: true,
					UserID:          claims.UserID,
					Username:        claims.Username,
				}
			}
		}

		ctx := context.WithValue(r.Context(), ctxIdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous callers before the handler runs.
func RequireAuth(next http.Handler) http.Handler {
	return WithIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).IsAuthenticated {
			writeError(w, http.StatusUnauthorized, "must be logged in.")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
