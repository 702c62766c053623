// AngelaMos | 2026
// routes.go

package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Favourez/loope/internal/auth"
	"github.com/Favourez/loope/internal/health"
	"github.com/Favourez/loope/internal/message"
	"github.com/Favourez/loope/internal/middleware"
	"github.com/Favourez/loope/internal/report"
	"github.com/Favourez/loope/internal/status"
	"github.com/Favourez/loope/internal/user"
)

type Middleware = func(http.Handler) http.Handler

// Routes holds everything Mount attaches to the router.
type Routes struct {
	APIKey string

	SessionAuth Middleware
	BearerAuth  Middleware
	// LoginLimiter throttles credential endpoints. Optional.
	LoginLimiter Middleware

	JWKS http.HandlerFunc

	Health   *health.Handler
	Auth     *auth.Handler
	Users    *user.Handler
	Reports  *report.Handler
	Messages *message.Handler
	Status   *status.Handler
}

// Mount registers the probes, the cookie-session web surface under /v1 and
// the API-key REST surface under /api/v1.
func Mount(r chi.Router, rt Routes) {
	loginLimiter := rt.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = passthrough
	}

	rt.Health.RegisterRoutes(r)

	if rt.JWKS != nil {
		r.Get("/.well-known/jwks.json", rt.JWKS)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(rt.SessionAuth)

		r.Group(func(r chi.Router) {
			r.Use(loginLimiter)
			rt.Auth.RegisterRoutes(r, middleware.RequireIdentity)
		})

		rt.Users.RegisterRoutes(r, middleware.RequireIdentity)
		rt.Users.RegisterDirectoryRoutes(r)
		rt.Reports.RegisterRoutes(r, middleware.RequireIdentity)
		rt.Messages.RegisterRoutes(r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		rt.Health.RegisterAPIRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(loginLimiter)
			rt.Auth.RegisterAPIRoutes(r, chain(rt.BearerAuth, middleware.RequireIdentity))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKey(rt.APIKey))
			r.Use(rt.BearerAuth)

			rt.Reports.RegisterAPIRoutes(r)
			rt.Users.RegisterDirectoryRoutes(r)
			rt.Messages.RegisterRoutes(r)
			rt.Status.RegisterRoutes(r)
		})
	})
}

// IsCredentialEndpoint matches the login and register paths of both
// surfaces. It is meant as the inverse of a limiter BypassFunc.
func IsCredentialEndpoint(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	return strings.HasSuffix(path, "/auth/login") ||
		strings.HasSuffix(path, "/auth/register")
}

func chain(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

func passthrough(next http.Handler) http.Handler {
	return next
}
