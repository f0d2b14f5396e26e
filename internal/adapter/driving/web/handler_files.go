package web

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sqliteContentType = "application/vnd.sqlite3"
)

// Upload serves a stored certificate document inline. Documents are served
// sandboxed so uploaded HTML cannot run script in the app's origin.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	rc, err := h.svc.Certificates.OpenFile(r.Context(), mustIdentity(r), name)
	if err != nil {
		if errors.Is(err, driven.ErrFileNotFound) || errors.Is(err, driven.ErrInvalidFileName) {
			h.renderError(w, r, http.StatusNotFound, "That document does not exist.")
			return
		}
		h.failed(w, r, "open upload", err)
		return
	}
	defer func() { _ = rc.Close() }()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "sandbox")

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream upload", "file", name, "error", err)
	}
}

// Backup downloads a consistent database snapshot. The snapshot is buffered
// before any header is written so a failure can still produce an error page.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.svc.Maintenance.Backup(r.Context(), mustIdentity(r), &buf)
	if err != nil {
		h.failed(w, r, "backup", err)
		return
	}
	h.sendAttachment(w, name, sqliteContentType, &buf)
}

// ExportExcel downloads the fleet status spreadsheet.
func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	id := mustIdentity(r)

	export, err := h.svc.Export.Prepare(r.Context(), id)
	if err != nil {
		h.failed(w, r, "prepare export", err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export.Write(r.Context(), id, &buf, export); err != nil {
		h.failed(w, r, "write export", err)
		return
	}
	h.sendAttachment(w, export.Filename(), xlsxContentType, &buf)
}

func (h *Handler) sendAttachment(w http.ResponseWriter, name, contentType string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to send attachment", "file", name, "error", err)
	}
}
