package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	vm "github.com/ericfisherdev/fleetcert/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 8 << 20

// AdminPage renders the admin console.
func (h *Handler) AdminPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdmin(w, r, http.StatusOK, nil)
}

// AdminAction dispatches an admin console form on its action field. Expected
// failures re-render the console with a message and status 400; success
// redirects back to the console.
func (h *Handler) AdminAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("The upload is larger than the %d MB limit.", h.opts.MaxUploadBytes>>20))
			return
		}
		h.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	if !validateCSRF(r) {
		h.renderError(w, r, http.StatusForbidden, msgBadCSRF)
		return
	}

	var (
		message string
		err     error
	)
	action := r.PostFormValue("action")
	switch action {
	case "add_vessel":
		message, err = h.addVessel(r)
	case "delete_vessel":
		message, err = h.deleteVessel(r)
	case "upload_cert":
		message, err = h.uploadCertificate(r)
	case "add_user":
		message, err = h.addUser(r)
	case "delete_user":
		message, err = h.deleteUser(r)
	case "restore_db":
		message, err = h.restoreDatabase(r)
	default:
		h.renderAdmin(w, r, http.StatusBadRequest, &vm.FlashViewModel{Tone: "danger", Message: "Unknown action."})
		return
	}

	if err != nil {
		if errors.Is(err, application.ErrForbidden) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		msg, ok := userMessage(err)
		if !ok {
			h.serverError(w, r, action, err)
			return
		}
		h.renderAdmin(w, r, http.StatusBadRequest, &vm.FlashViewModel{Tone: "danger", Message: msg})
		return
	}

	setFlash(w, "success", message, h.opts.CookieSecure)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) addVessel(r *http.Request) (string, error) {
	v, err := h.svc.Vessels.Add(r.Context(), mustIdentity(r), application.NewVesselInput{
		Name:         r.PostFormValue("name"),
		IMO:          r.PostFormValue("imo"),
		Flag:         r.PostFormValue("flag"),
		ClassSociety: r.PostFormValue("class_society"),
		VesselType:   r.PostFormValue("vessel_type"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Vessel %s added.", v.Name), nil
}

func (h *Handler) deleteVessel(r *http.Request) (string, error) {
	vesselID, err := formID(r, "vessel_id", "Vessel")
	if err != nil {
		return "", err
	}
	if err := h.svc.Vessels.Delete(r.Context(), mustIdentity(r), vesselID); err != nil {
		return "", err
	}
	return "Vessel deleted.", nil
}

func (h *Handler) uploadCertificate(r *http.Request) (string, error) {
	vesselID, err := formID(r, "vessel_id", "Vessel")
	if err != nil {
		return "", err
	}
	expiry, err := formDate(r, "expiry_date")
	if err != nil {
		return "", err
	}

	in := application.UploadInput{
		VesselID:           vesselID,
		Name:               r.PostFormValue("cert_name"),
		Category:           r.PostFormValue("category"),
		ExpiryDate:         expiry,
		IsConditionOfClass: r.PostFormValue("is_coc") != "",
		Remarks:            r.PostFormValue("remarks"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return "", fmt.Errorf("read upload: %w", err)
	default:
		defer func() { _ = file.Close() }()
		in.FileName = header.Filename
		in.File = file
	}

	cert, err := h.svc.Certificates.Upload(r.Context(), mustIdentity(r), in)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Certificate %s uploaded.", cert.Name), nil
}

func (h *Handler) addUser(r *http.Request) (string, error) {
	u, err := h.svc.Users.Add(r.Context(), mustIdentity(r), application.NewUserInput{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("User %s added.", u.Username), nil
}

func (h *Handler) deleteUser(r *http.Request) (string, error) {
	userID, err := formID(r, "user_id", "User")
	if err != nil {
		return "", err
	}
	if err := h.svc.Users.Delete(r.Context(), mustIdentity(r), userID); err != nil {
		return "", err
	}
	return "User deleted.", nil
}

func (h *Handler) restoreDatabase(r *http.Request) (string, error) {
	file, _, err := r.FormFile("backup")
	if errors.Is(err, http.ErrMissingFile) {
		return "", &application.ValidationError{Fields: map[string]string{"Backup": "Choose a backup file to restore"}}
	}
	if err != nil {
		return "", fmt.Errorf("read backup upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := h.svc.Maintenance.Restore(r.Context(), mustIdentity(r), file); err != nil {
		return "", err
	}
	return "Database restored.", nil
}

// formID parses a positive integer id field. A missing or malformed value is
// reported as a validation error on label.
func formID(r *http.Request, field, label string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(field)), 10, 64)
	if err != nil || id <= 0 {
		return 0, &application.ValidationError{Fields: map[string]string{label: label + " is required"}}
	}
	return id, nil
}

// formDate parses an optional YYYY-MM-DD field.
func formDate(r *http.Request, field string) (*time.Time, error) {
	d, err := model.ParseDate(r.FormValue(field))
	if err != nil {
		return nil, &application.ValidationError{Fields: map[string]string{"Expiry date": "Expiry date must be a date (YYYY-MM-DD)"}}
	}
	return d, nil
}
