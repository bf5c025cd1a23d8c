package httpx

import (
	"log/slog"
	"net/http"

	"github.com/itm-kmutnb/classroom-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth         *service.AuthService
	Allowlist    *service.AllowlistService
	Directory    *service.DirectoryService
	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	directoryHandlers := &DirectoryHandlers{Directory: services.Directory, Logger: services.Logger}
	allowlistHandlers := &AllowlistHandlers{Svc: services.Allowlist, Logger: services.Logger}

	registerAuthRoutes(mux, authHandlers)
	registerAPIRoutes(mux, apiRouteConfig{
		Auth:      services.Auth,
		Directory: directoryHandlers,
		Allowlist: allowlistHandlers,
	})

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

// apiRouteConfig groups the handlers and gate source for /api routes.
type apiRouteConfig struct {
	Auth      AuthServiceInterface
	Directory *DirectoryHandlers
	Allowlist *AllowlistHandlers
}

// registerAPIRoutes wires the role-gated API surface. Each route carries its
// own gate; there is no role hierarchy.
func registerAPIRoutes(mux *http.ServeMux, cfg apiRouteConfig) {
	anyUser := RequireAuth(cfg.Auth)
	adminOnly := RequireAdmin(cfg.Auth)
	instructorOrAdmin := RequireInstructor(cfg.Auth)
	studentOnly := RequireStudent(cfg.Auth)

	mux.Handle("GET /api/profile", anyUser(http.HandlerFunc(cfg.Directory.Profile)))

	mux.Handle("GET /api/admin/identities", adminOnly(http.HandlerFunc(cfg.Directory.Identities)))
	mux.Handle("GET /api/admin/allowlist", adminOnly(http.HandlerFunc(cfg.Allowlist.List)))
	mux.Handle("POST /api/admin/allowlist", adminOnly(http.HandlerFunc(cfg.Allowlist.Create)))
	mux.Handle("GET /api/admin/allowlist/{email}", adminOnly(http.HandlerFunc(cfg.Allowlist.Get)))
	mux.Handle("DELETE /api/admin/allowlist/{email}", adminOnly(http.HandlerFunc(cfg.Allowlist.Delete)))

	mux.Handle("GET /api/roster", instructorOrAdmin(http.HandlerFunc(cfg.Directory.Roster)))
	mux.Handle("GET /api/enrollments", studentOnly(http.HandlerFunc(cfg.Directory.Enrollments)))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
