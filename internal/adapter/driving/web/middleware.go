package web

import (
	"net/http"
)

// requireAuth redirects requests without a valid session to the login page
// and stores the identity of the rest in the request context.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.sessions.Authenticate(r)
		if err != nil {
			h.serverError(w, r, "authenticate", err)
			return
		}
		if id == nil {
			h.sessions.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(withIdentity(r.Context(), *id)))
	}
}

// requirePermission wraps requireAuth and sends users whose role lacks the
// permission back to the dashboard before the handler runs.
func (h *Handler) requirePermission(obj, act string, next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		id := mustIdentity(r)
		ok, err := h.authz.Allowed(id.Role, obj, act)
		if err != nil {
			h.serverError(w, r, "check permission", err)
			return
		}
		if !ok {
			h.logger.Warn("permission denied", "user", id.Username, "role", id.Role, "obj", obj, "act", act, "path", r.URL.Path)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}
