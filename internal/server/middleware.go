package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"score-wallet/internal/auth"
	"score-wallet/internal/errors"
	"score-wallet/internal/handler"
	"score-wallet/internal/service"
)

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeAuthError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	w.Write([]byte(`{"error":{"code":"` + string(appErr.Code) + `","message":"` + appErr.Message + `"}}`))
}

// authMiddleware validates the access token and loads the user from the
// database on every request, so a disable or role change since the token was
// minted takes effect immediately. A disabled user is rejected here, before
// any account or payment operation can run.
func authMiddleware(tokens *auth.Manager, users *service.UserService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := handler.BearerToken(r)
			if !ok {
				writeAuthError(w, errors.NewAppError(errors.Unauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := tokens.Parse(tokenStr, auth.TokenTypeAccess)
			if err != nil {
				appErr, ok := err.(*errors.AppError)
				if !ok {
					appErr = errors.NewAppError(errors.Unauthorized, "invalid or expired token")
				}
				writeAuthError(w, appErr)
				return
			}

			user, err := users.GetByEmail(claims.Subject)
			if err != nil {
				writeAuthError(w, errors.NewAppError(errors.Unauthorized, "could not validate credentials"))
				return
			}
			if !user.Active {
				writeAuthError(w, errors.ErrUserDisabled)
				return
			}

			next.ServeHTTP(w, r.WithContext(handler.WithUser(r.Context(), user)))
		})
	}
}

// adminMiddleware gates a subrouter to admin users. Runs after
// authMiddleware, so the user is already loaded and active.
func adminMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := handler.UserFromContext(r.Context())
			if user == nil || !user.IsAdmin() {
				writeAuthError(w, errors.ErrNotAdmin)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
