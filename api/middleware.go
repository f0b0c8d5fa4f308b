/*
middleware.go - Session authentication and request logging

AUTHENTICATION:
  Sessions are issued by an external auth collaborator and stored in the
  sessions table. A request carries its token either as
  "Authorization: Bearer <token>" or as the winning_session cookie.
  RequireSession answers 401 JSON when no valid session backs the
  request; OptionalSession only resolves the user, for routes that
  redirect instead (see /invite). RequireAdmin runs after
  RequireSession and lets through only the configured admin user ids.

LOGGING:
  RequestLogger writes one zap line per request with method, path,
  status, bytes, duration and the chi request id.
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/winning-app/winning/planner"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "winning_session"

type ctxKey int

const userKey ctxKey = iota

// userFrom returns the authenticated user, or nil.
func userFrom(ctx context.Context) *planner.User {
	u, _ := ctx.Value(userKey).(*planner.User)
	return u
}

// viewerID returns the id of the authenticated user.
func viewerID(r *http.Request) string {
	if u := userFrom(r.Context()); u != nil {
		return u.ID
	}
	return ""
}

func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// OptionalSession resolves the session user when there is one.
func (h *Handler) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := h.Service.Authenticate(r.Context(), token)
		switch {
		case err == nil:
			r = r.WithContext(context.WithValue(r.Context(), userKey, u))
		case !isUnauthenticated(err):
			h.Logger.Error("session lookup failed", zap.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests without a valid session.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return h.OptionalSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireAdmin answers 403 unless the session user is one of admins.
// An empty list locks the routes for everyone.
func RequireAdmin(admins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(admins))
	for _, id := range admins {
		allowed[id] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[viewerID(r)] {
				writeError(w, http.StatusForbidden, "Admin access required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs every request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
