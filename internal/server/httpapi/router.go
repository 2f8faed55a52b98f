package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/guard"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

type handler struct {
	identity Identity
	guard    *guard.Guard
	logger   logging.Logger
}

func NewRouter(identity Identity, logger logging.Logger) http.Handler {
	h := &handler{
		identity: identity,
		guard:    guard.New(identity),
		logger:   logger,
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))

	r.Get("/health", h.health)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(a chi.Router) {
			a.Post("/register", h.register)
			a.Post("/login", h.login)
			a.Post("/refresh", h.refresh)

			a.Group(func(active chi.Router) {
				active.Use(h.require(guard.Active))
				active.Post("/change-password", h.changePassword)
				active.Post("/logout", h.logout)
			})
		})

		v1.Route("/users", func(u chi.Router) {
			u.Group(func(active chi.Router) {
				active.Use(h.require(guard.Active))
				active.Get("/me", h.getMe)
				active.Put("/me", h.updateMe)
			})

			u.Group(func(admin chi.Router) {
				admin.Use(h.require(guard.Admin))
				admin.Get("/", h.listUsers)
				admin.Get("/{id}", h.getUser)
				admin.Delete("/{id}", h.deactivateUser)
			})
		})
	})

	return r
}
