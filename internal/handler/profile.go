package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/service"
)

const maxUploadBytes = 5 << 20 // 5MB

// ProfileHandler handles the logged-in user's profile endpoints.
type ProfileHandler struct{}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// HandleGet handles GET /profile requests.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	identity, err := sess.RefreshProfile(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ProfileResponse{User: identity})
}

// HandleUpdate handles PUT /profile requests.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	var upd model.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	identity, err := sess.UpdateProfile(r.Context(), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ProfileResponse{User: identity})
}

// HandleUploadPhoto handles POST /profile/photo requests.
func (h *ProfileHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "photo", (*service.Session).UploadPhoto)
}

// HandleUploadResume handles POST /profile/resume requests.
func (h *ProfileHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "resume", (*service.Session).UploadResume)
}

type uploadFunc func(s *service.Session, ctx context.Context, filename string, file io.Reader) (model.Identity, error)

func (h *ProfileHandler) handleUpload(w http.ResponseWriter, r *http.Request, field string, upload uploadFunc) {
	sess, ok := sessionOf(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("file too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("missing file field "+field))
		return
	}
	defer file.Close()

	identity, err := upload(sess, r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ProfileResponse{User: identity})
}
