// Package router wires the HTTP surface: public link redemption, passkey
// login ceremonies, the authenticated API, and the cron-guarded
// maintenance endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/clovalink/clovalink-server/internal/api/http/handler"
	"github.com/clovalink/clovalink-server/internal/api/http/middleware"
)

// Handlers groups the route handlers the router mounts.
type Handlers struct {
	Auth        *handler.Auth
	TOTP        *handler.TOTP
	Passkey     *handler.Passkey
	Link        *handler.Link
	Document    *handler.Document
	Activity    *handler.Activity
	Maintenance *handler.Maintenance
}

// Middlewares groups the cross-cutting middlewares.
type Middlewares struct {
	Logging      *middleware.Logging
	Authenticate *middleware.Authenticate
	CronGuard    *middleware.CronGuard
}

// New builds the chi router.
func New(h Handlers, m Middlewares) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(m.Logging.Handle)
	r.Use(chimiddleware.Recoverer)

	// Public: sessions and passkey login ceremonies.
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)
	})
	r.Route("/api/passkey/login", func(r chi.Router) {
		r.Post("/options", h.Passkey.AuthenticationOptions)
		r.Post("/verify", h.Passkey.AuthenticationVerify)
	})

	// Public: capability link validation and redemption. The token is the
	// capability; no session is required.
	r.Get("/api/download-links/validate/{token}", h.Link.ValidateDownload)
	r.Get("/api/upload-links/validate/{token}", h.Link.ValidateUpload)
	r.Get("/download/{token}", h.Document.DownloadViaLink)
	r.Post("/upload/{token}", h.Document.UploadViaLink)

	// Authenticated API.
	r.Group(func(r chi.Router) {
		r.Use(m.Authenticate.Handle)

		r.Route("/api/totp", func(r chi.Router) {
			r.Post("/setup", h.TOTP.Setup)
			r.Post("/verify", h.TOTP.Verify)
			r.Post("/disable", h.TOTP.Disable)
			r.Get("/status", h.TOTP.Status)
		})

		r.Route("/api/passkey", func(r chi.Router) {
			r.Post("/register/options", h.Passkey.RegistrationOptions)
			r.Post("/register/verify", h.Passkey.RegistrationVerify)
			r.Get("/", h.Passkey.List)
			r.Delete("/{id}", h.Passkey.Delete)
		})

		r.Route("/api/download-links", func(r chi.Router) {
			r.Post("/", h.Link.CreateDownload)
			r.Get("/", h.Link.ListDownload)
			r.Delete("/{id}", h.Link.DeleteDownload)
		})

		r.Route("/api/upload-links", func(r chi.Router) {
			r.Post("/", h.Link.CreateUpload)
			r.Get("/", h.Link.ListUpload)
			r.Delete("/{id}", h.Link.DeleteUpload)
		})

		r.Route("/api/documents", func(r chi.Router) {
			r.Post("/", h.Document.Upload)
			r.Get("/{id}/content", h.Document.Download)
			r.Delete("/{id}", h.Document.Delete)
		})
		r.Get("/api/folders/{id}/documents", h.Document.ListFolder)

		r.Get("/api/activities", h.Activity.List)

		r.Put("/api/employees/public-key", h.Auth.SetPublicKey)
		r.Get("/api/employees/{id}/public-key", h.Auth.GetPublicKey)
	})

	// Maintenance, guarded by the shared cron secret.
	r.Group(func(r chi.Router) {
		r.Use(m.CronGuard.Handle)
		r.Post("/api/maintenance/sweep-links", h.Maintenance.SweepLinks)
		r.Post("/api/maintenance/purge-activities", h.Maintenance.PurgeActivities)
	})

	return r
}
