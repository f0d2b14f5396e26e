package web

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ericfisherdev/fleetcert/internal/authz"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	loginLimit := httprate.Limit(
		h.opts.LoginRateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(h.loginLimited),
	)

	mux.HandleFunc("GET /login", h.LoginPage)
	mux.Handle("POST /login", loginLimit(http.HandlerFunc(h.Login)))
	mux.HandleFunc("GET /logout", h.Logout)

	mux.HandleFunc("GET /{$}", h.requirePermission(authz.ObjFleet, authz.ActRead, h.Dashboard))
	mux.HandleFunc("GET /uploads/{filename}", h.requirePermission(authz.ObjFiles, authz.ActRead, h.Upload))
	mux.HandleFunc("GET /export_excel", h.requirePermission(authz.ObjExport, authz.ActRead, h.ExportExcel))

	// Admin surface. Individual actions are authorized again by the services.
	mux.HandleFunc("GET /admin", h.requirePermission(authz.ObjAdmin, authz.ActRead, h.AdminPage))
	mux.HandleFunc("POST /admin", h.requirePermission(authz.ObjAdmin, authz.ActRead, h.AdminAction))
	mux.HandleFunc("GET /backup", h.requirePermission(authz.ObjDatabase, authz.ActRead, h.Backup))
	mux.HandleFunc("GET /cert/{id}/delete", h.requirePermission(authz.ObjCertificates, authz.ActWrite, h.ConfirmDeleteCertificate))
	mux.HandleFunc("POST /cert/{id}/delete", h.requirePermission(authz.ObjCertificates, authz.ActWrite, h.DeleteCertificate))
	mux.HandleFunc("POST /cert/{id}/update", h.requirePermission(authz.ObjCertificates, authz.ActWrite, h.UpdateCertificate))
}
