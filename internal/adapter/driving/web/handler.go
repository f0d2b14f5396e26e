// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/fleetcert/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/fleetcert/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/fleetcert/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// Login outcomes reported to the LoginObserver.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
	LoginLimited = "limited"
)

const (
	msgInternal     = "Something went wrong. The error has been logged."
	msgBadCSRF      = "Your form has expired. Reload the page and try again."
	msgBadLogin     = "Invalid username or password."
	msgLoginLimited = "Too many sign-in attempts. Wait a minute and try again."
	formBodyLimit   = 64 << 10
)

// Services bundles the use cases the GUI drives.
type Services struct {
	Auth         *application.AuthService
	Fleet        *application.FleetService
	Vessels      *application.VesselService
	Certificates *application.CertificateService
	Users        *application.UserService
	Audit        *application.AuditService
	Export       *application.ExportService
	Maintenance  *application.MaintenanceService
}

// Options tunes request limits and cookie flags.
type Options struct {
	MaxUploadBytes int64
	LoginRateLimit int // POST /login requests per IP per minute
	CookieSecure   bool
}

// LoginObserver records sign-in outcomes.
type LoginObserver interface {
	ObserveLogin(result string)
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	svc      Services
	sessions *Sessions
	authz    application.Authorizer
	logins   LoginObserver
	opts     Options
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	svc Services,
	sessions *Sessions,
	a application.Authorizer,
	logins LoginObserver,
	opts Options,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		authz:    a,
		logins:   logins,
		opts:     opts,
		logger:   logger,
	}
}

// LoginPage renders the sign-in form, or sends signed-in users home.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if id, err := h.sessions.Authenticate(r); err == nil && id != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, vm.LoginViewModel{})
}

// Login verifies credentials and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, formBodyLimit)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	if !validateCSRF(r) {
		h.renderError(w, r, http.StatusForbidden, msgBadCSRF)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	id, err := h.svc.Auth.Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			h.logins.ObserveLogin(LoginFailure)
			h.renderLogin(w, r, http.StatusUnauthorized, vm.LoginViewModel{Username: username, Error: msgBadLogin})
			return
		}
		h.serverError(w, r, "login", err)
		return
	}

	if err := h.sessions.Issue(w, id); err != nil {
		h.serverError(w, r, "issue session", err)
		return
	}
	h.logins.ObserveLogin(LoginSuccess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loginLimited answers POST /login once the per-IP budget is spent.
func (h *Handler) loginLimited(w http.ResponseWriter, r *http.Request) {
	h.logins.ObserveLogin(LoginLimited)
	h.logger.Warn("login rate limit exceeded", "remote", r.RemoteAddr)
	h.renderLogin(w, r, http.StatusTooManyRequests, vm.LoginViewModel{Error: msgLoginLimited})
}

// Logout ends the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, err := h.sessions.Authenticate(r); err == nil && id != nil {
		h.svc.Auth.Logout(r.Context(), *id)
	}
	h.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Dashboard renders the fleet overview, optionally filtered by ?search=.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	status, err := h.svc.Fleet.Dashboard(r.Context(), id, search)
	if err != nil {
		h.failed(w, r, "load dashboard", err)
		return
	}

	canEdit, err := h.authz.Allowed(id.Role, authz.ObjCertificates, authz.ActWrite)
	if err != nil {
		h.serverError(w, r, "check edit permission", err)
		return
	}

	today := h.svc.Fleet.Today().Format(model.DateLayout)
	page := h.page(w, r, "Dashboard")
	data := toDashboardViewModel(status, today, search, canEdit)
	h.render(w, r, http.StatusOK, page, pages.Dashboard(data, page.CSRFToken))
}

// renderAdmin renders the admin console with the given status and flash.
func (h *Handler) renderAdmin(w http.ResponseWriter, r *http.Request, status int, flash *vm.FlashViewModel) {
	id := mustIdentity(r)
	ctx := r.Context()

	vessels, err := h.svc.Vessels.List(ctx, id)
	if err != nil {
		h.failed(w, r, "list vessels", err)
		return
	}
	users, err := h.svc.Users.List(ctx, id)
	if err != nil {
		h.failed(w, r, "list users", err)
		return
	}
	audit, err := h.svc.Audit.Recent(ctx, id)
	if err != nil {
		h.failed(w, r, "list audit log", err)
		return
	}

	page := h.page(w, r, "Admin")
	if flash != nil {
		page.Flash = flash
	}
	h.render(w, r, status, page, pages.Admin(toAdminViewModel(vessels, users, audit, id), page.CSRFToken))
}

// page builds the shared page data for the current request and consumes any
// pending flash message.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, title string) vm.PageViewModel {
	page := vm.PageViewModel{
		Title:     title,
		CSRFToken: csrfToken(w, r, h.opts.CookieSecure),
		Flash:     popFlash(w, r, h.opts.CookieSecure),
	}
	if id, ok := identityFrom(r.Context()); ok {
		page.Username = id.Username
		page.IsAdmin = id.IsAdmin()
	}
	return page
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data vm.LoginViewModel) {
	page := h.page(w, r, "Sign in")
	h.render(w, r, status, page, pages.Login(data, page.CSRFToken))
}

// render buffers the full page so a template failure can still become a 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page vm.PageViewModel, content templ.Component) {
	var buf bytes.Buffer
	if err := templates.Layout(page, content).Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "title", page.Title, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("failed to write page", "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	page := vm.PageViewModel{Title: http.StatusText(status)}
	if id, ok := identityFrom(r.Context()); ok {
		page.Username = id.Username
		page.IsAdmin = id.IsAdmin()
	}
	h.render(w, r, status, page, pages.Error(status, message))
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("request failed", "op", op, "path", r.URL.Path, "error", err)
	h.renderError(w, r, http.StatusInternalServerError, msgInternal)
}

// failed handles a service error outside form handling: forbidden sends the
// user home, everything else is a 500.
func (h *Handler) failed(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, application.ErrForbidden) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.serverError(w, r, op, err)
}

// userMessage maps an expected service error to text safe to show. It
// returns false for unexpected errors.
func userMessage(err error) (string, bool) {
	var ve *application.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error(), true
	case errors.Is(err, application.ErrSelfDelete):
		return "You cannot delete your own account.", true
	case errors.Is(err, driven.ErrUserProtected):
		return "The bootstrap administrator cannot be deleted.", true
	case errors.Is(err, driven.ErrUserNotFound):
		return "That user no longer exists.", true
	case errors.Is(err, driven.ErrVesselNotFound):
		return "That vessel no longer exists.", true
	case errors.Is(err, driven.ErrCertificateNotFound):
		return "That certificate no longer exists.", true
	case errors.Is(err, driven.ErrInvalidBackup):
		return "The uploaded file is not a valid fleetcert backup. Nothing was changed.", true
	default:
		return "", false
	}
}

// mustIdentity returns the identity stored by requireAuth. Handlers behind
// requireAuth always have one.
func mustIdentity(r *http.Request) model.Identity {
	id, ok := identityFrom(r.Context())
	if !ok {
		panic(errNoIdentity)
	}
	return id
}
