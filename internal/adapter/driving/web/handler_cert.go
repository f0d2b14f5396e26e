package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/fleetcert/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/fleetcert/internal/application"
)

// ConfirmDeleteCertificate renders a confirmation form for a delete link.
// It changes nothing; the form posts back to the same path.
func (h *Handler) ConfirmDeleteCertificate(w http.ResponseWriter, r *http.Request) {
	certID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || certID <= 0 {
		h.renderError(w, r, http.StatusNotFound, "That certificate does not exist.")
		return
	}

	cert, err := h.svc.Certificates.Get(r.Context(), mustIdentity(r), certID)
	if err != nil {
		h.failed(w, r, "load certificate", err)
		return
	}
	if cert == nil {
		h.renderError(w, r, http.StatusNotFound, "That certificate does not exist.")
		return
	}

	page := h.page(w, r, "Delete certificate")
	h.render(w, r, http.StatusOK, page, pages.ConfirmDelete(toConfirmDeleteViewModel(*cert), page.CSRFToken))
}

// DeleteCertificate removes a certificate and its document.
func (h *Handler) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	certID, ok := h.certificateID(w, r)
	if !ok {
		return
	}

	err := h.svc.Certificates.Delete(r.Context(), mustIdentity(r), certID)
	h.finishCertificate(w, r, "delete certificate", "Certificate deleted.", err)
}

// UpdateCertificate changes a certificate's name and expiry date.
func (h *Handler) UpdateCertificate(w http.ResponseWriter, r *http.Request) {
	certID, ok := h.certificateID(w, r)
	if !ok {
		return
	}

	expiry, err := formDate(r, "expiry_date")
	if err == nil {
		err = h.svc.Certificates.Update(r.Context(), mustIdentity(r), certID, application.UpdateInput{
			Name:       r.PostFormValue("name"),
			ExpiryDate: expiry,
		})
	}
	h.finishCertificate(w, r, "update certificate", "Certificate updated.", err)
}

// certificateID parses the form, checks CSRF, and reads the {id} path value.
// It writes the error response itself and returns false on failure.
func (h *Handler) certificateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, formBodyLimit)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return 0, false
	}
	if !validateCSRF(r) {
		h.renderError(w, r, http.StatusForbidden, msgBadCSRF)
		return 0, false
	}

	certID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || certID <= 0 {
		h.renderError(w, r, http.StatusNotFound, "That certificate does not exist.")
		return 0, false
	}
	return certID, true
}

// finishCertificate redirects to the dashboard with a flash describing the
// outcome. Unexpected errors become a 500 page.
func (h *Handler) finishCertificate(w http.ResponseWriter, r *http.Request, op, success string, err error) {
	if err != nil {
		if errors.Is(err, application.ErrForbidden) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		msg, ok := userMessage(err)
		if !ok {
			h.serverError(w, r, op, err)
			return
		}
		setFlash(w, "danger", msg, h.opts.CookieSecure)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", success, h.opts.CookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
