package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"signlearn/internal/models"
	"signlearn/internal/security"
	"signlearn/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey ContextKey = "user"
	// authMethodContextKey records whether the request used a cookie session or a bearer token
	authMethodContextKey ContextKey = "auth_method"
)

const (
	authMethodSession = "session"
	authMethodBearer  = "bearer"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFTokens
	limiter     security.RateLimiter
}

// NewMiddleware creates a new middleware instance. limiter may be nil to disable rate limiting.
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFTokens, limiter security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
	}
}

// RequireAuth is middleware that requires a valid session cookie or bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := security.BearerToken(r); token != "" {
			user, err := m.authService.ValidateAccessToken(r.Context(), token)
			if err != nil {
				respondServiceError(w, "Error validating access token", err)
				return
			}
			next(w, r.WithContext(withUser(r.Context(), user, authMethodBearer)))
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			// Clear invalid cookie
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondServiceError(w, "Error validating session", err)
			return
		}

		next(w, r.WithContext(withUser(r.Context(), user, authMethodSession)))
	}
}

// RequireAdmin is middleware that requires an authenticated admin user
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respondWithError(w, http.StatusForbidden, "Admin access required", "", nil)
			return
		}
		next(w, r)
	})
}

// CSRFProtect requires the X-CSRF-Token header on cookie-authenticated
// requests. Bearer-token requests carry no ambient credentials and pass through.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if method, _ := r.Context().Value(authMethodContextKey).(string); method == authMethodBearer {
			next(w, r)
			return
		}

		if err := m.csrf.CheckRequest(r); err != nil {
			respondWithError(w, http.StatusForbidden, "Invalid CSRF token", "CSRF check failed for "+r.URL.Path, err)
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client IP and path
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(r.Context(), security.GetClientIP(r)+":"+r.URL.Path) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, "Too many requests, please try again later", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withUser(ctx context.Context, user *models.User, method string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	return context.WithValue(ctx, authMethodContextKey, method)
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
