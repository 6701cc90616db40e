package handler

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// AdminHandler handles the administration endpoints.
type AdminHandler struct{}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// HandleUsers handles GET /admin/users requests.
func (h *AdminHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	users, err := sess.Admin().Users(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleJobs handles GET /admin/jobs requests.
func (h *AdminHandler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	jobs, err := sess.Admin().Jobs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// HandleContacts handles GET /admin/contacts requests.
func (h *AdminHandler) HandleContacts(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	contacts, err := sess.Admin().Contacts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// HandleReports handles GET /admin/reports requests.
func (h *AdminHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	reports, err := sess.Admin().Reports(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// HandleDeleteUser handles DELETE /admin/users/{id} requests.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	if err := sess.Admin().DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteJob handles DELETE /admin/jobs/{id} requests.
func (h *AdminHandler) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	if err := sess.Admin().DeleteJob(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteContact handles DELETE /admin/contacts/{id} requests.
func (h *AdminHandler) HandleDeleteContact(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}
	if err := sess.Admin().DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBackup handles GET /admin/backup requests. The export is buffered so a
// failed download still gets a JSON error response.
func (h *AdminHandler) HandleBackup(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	filename, err := sess.Admin().ExportBackup(r.Context(), &buf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if filename == "" {
		filename = "backup.zip"
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
