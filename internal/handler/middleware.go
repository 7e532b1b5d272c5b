package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/session"
)

type contextKey string

const runtimeKey contextKey = "runtime"

// SessionMiddleware resolves the Bearer credential to a live session
// and injects the per-session runtime into the request context.
func SessionMiddleware(mgr *session.Manager, rs *runtimes, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "authentication token not provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			sess, err := mgr.Resolve(r.Context(), parts[1])
			if err != nil {
				logger.Warn("auth: expired or unknown session",
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusUnauthorized, (&domain.ErrSessionExpired{}).Error())
				return
			}

			rt := rs.forSession(sess)
			ctx := context.WithValue(r.Context(), runtimeKey, rt)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the Bearer credential from the Authorization
// header, if one is present and well-formed.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// runtimeFromContext extracts the session runtime injected by
// SessionMiddleware.
func runtimeFromContext(ctx context.Context) *runtime {
	rt, _ := ctx.Value(runtimeKey).(*runtime)
	return rt
}

// AdminOnly refuses non-admin sessions.
func AdminOnly(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt := runtimeFromContext(r.Context())
			user := rt.session.User()
			if user == nil || user.Role != domain.RoleAdmin {
				logger.Warn("admin route refused",
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
