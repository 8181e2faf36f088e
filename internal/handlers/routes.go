package handlers

import "net/http"

// Router bundles the handlers served by the API
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Lessons    *LessonHandler
	Progress   *ProgressHandler
	Admin      *AdminHandler
	Health     http.HandlerFunc
}

// Handler returns the API routes wrapped in request logging
func (rt *Router) Handler() http.Handler {
	m := rt.Middleware
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.Health)

	// Identity
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(rt.Auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("POST /api/auth/token", m.RateLimit(rt.Auth.Token))
	mux.HandleFunc("POST /api/auth/logout", rt.Auth.Logout)
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(rt.Auth.Me))
	mux.HandleFunc("GET /api/auth/providers", rt.Auth.Providers)
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)

	// Lessons
	mux.HandleFunc("GET /api/modules", m.RequireAuth(rt.Lessons.ListModules))
	mux.HandleFunc("GET /api/lessons/{id}/access", m.RequireAuth(rt.Lessons.Access))
	mux.HandleFunc("GET /api/lessons/{id}/questions/{n}", m.RequireAuth(rt.Lessons.Question))
	mux.HandleFunc("POST /api/lessons/{id}/answers", m.RequireAuth(m.CSRFProtect(rt.Lessons.Answer)))
	mux.HandleFunc("POST /api/lessons/{id}/finish", m.RequireAuth(m.CSRFProtect(rt.Lessons.Finish)))

	// Progress
	mux.HandleFunc("GET /api/progress", m.RequireAuth(rt.Progress.Overview))
	mux.HandleFunc("GET /api/progress/modules", m.RequireAuth(rt.Progress.Modules))
	mux.HandleFunc("GET /api/mistakes", m.RequireAuth(rt.Progress.Mistakes))

	// Admin
	mux.HandleFunc("POST /api/admin/curriculum", m.RequireAdmin(m.CSRFProtect(rt.Admin.ImportCurriculum)))
	mux.HandleFunc("GET /api/admin/curriculum", m.RequireAdmin(rt.Admin.ExportCurriculum))

	return Logging(mux)
}
