package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Route paths served by the development server. The client's default
// adapter configuration points at the same paths.
const (
	PrimarySyncPath = "/functions/v1/sync"
	DirectSyncPath  = "/rest/v1/sync"
	OpsPath         = "/rest/v1/ops"
	HealthPath      = "/health"
	VersionPath     = "/version"
	TokenPath       = "/dev/token"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get(HealthPath, h.health)
		r.Get(VersionPath, h.getServerVersion)
		r.Post(TokenPath, h.issueToken)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth, h.checkHash)

		r.Post(PrimarySyncPath, h.sync)
		r.Post(DirectSyncPath, h.sync)

		r.Route(OpsPath, func(r chi.Router) {
			r.Post("/{table}", h.applyOperation)
			r.Patch("/{table}", h.applyOperation)
			r.Delete("/{table}", h.applyOperation)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
