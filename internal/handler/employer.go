package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireloop/hireloop-web/internal/model"
)

// EmployerHandler handles the employer's listings and received applications.
type EmployerHandler struct{}

// NewEmployerHandler creates a new EmployerHandler.
func NewEmployerHandler() *EmployerHandler {
	return &EmployerHandler{}
}

// HandleListJobs handles GET /employer/jobs requests.
func (h *EmployerHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	jobs, err := sess.Jobs().Mine(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// HandleCreateJob handles POST /employer/jobs requests.
func (h *EmployerHandler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var in model.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}

	job, err := sess.Jobs().Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// HandleUpdateJob handles PUT /employer/jobs/{id} requests.
func (h *EmployerHandler) HandleUpdateJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var in model.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}

	job, err := sess.Jobs().Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleDeleteJob handles DELETE /employer/jobs/{id} requests.
func (h *EmployerHandler) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	if err := sess.Jobs().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleJobApplications handles GET /employer/jobs/{id}/applications requests.
func (h *EmployerHandler) HandleJobApplications(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	apps, err := sess.Applications().ForJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleSetStatus handles PATCH /employer/applications/{id}/status requests.
func (h *EmployerHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var upd model.StatusUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	app, err := sess.Applications().SetStatus(r.Context(), chi.URLParam(r, "id"), upd.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
