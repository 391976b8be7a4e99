package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/upload"
)

const maxUploadBytes = 10 << 20

type UploadsHandler struct {
	Uploader upload.Uploader
}

// Create accepts a multipart "file" part and returns its hosted URL.
func (h UploadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_upload", "Expected a multipart image upload")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_upload", "Missing file")
		return
	}
	defer file.Close()

	hosted, err := h.Uploader.Upload(r.Context(), filepath.Base(hdr.Filename), file)
	if err != nil {
		writeServiceError(w, r, err, "Failed to upload image")
		return
	}
	WriteJSON(w, http.StatusCreated, models.UploadResponse{URL: hosted})
}
