package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/guard"
	"github.com/go-chi/jwtauth/v5"
)

// require admits requests whose bearer token satisfies level and stores the
// principal on the request context.
func (h *handler) require(level guard.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := h.guard.Authorize(r.Context(), jwtauth.TokenFromHeader(r), level)
			if err != nil {
				h.logger.Debug(r.Context(), "access denied", "path", r.URL.Path, "level", level.String(), "reason", err)
				respondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(guard.WithPrincipal(r.Context(), u)))
		})
	}
}
