package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hireloop/hireloop-web/internal/model"
)

// JobHandler handles job listings and worker applications.
type JobHandler struct{}

// NewJobHandler creates a new JobHandler.
func NewJobHandler() *JobHandler {
	return &JobHandler{}
}

// HandleSearch handles GET /jobs requests.
func (h *JobHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := model.JobQuery{Q: q.Get("q"), Location: q.Get("location")}
	query.Page, _ = strconv.Atoi(q.Get("page"))
	query.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := sess.Jobs().Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet handles GET /jobs/{id} requests.
func (h *JobHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	job, err := sess.Jobs().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleApply handles POST /jobs/{id}/apply requests.
func (h *JobHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var req struct {
		CoverLetter string `json:"coverLetter"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	applied, err := sess.Applications().Apply(r.Context(), chi.URLParam(r, "id"), req.CoverLetter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, applied)
}

// HandleListApplications handles GET /applications requests.
func (h *JobHandler) HandleListApplications(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	jobs, err := sess.Applications().Mine(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// HandleWithdraw handles DELETE /applications/{id} requests.
func (h *JobHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	if err := sess.Applications().Withdraw(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
