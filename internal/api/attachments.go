package api

import (
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/evandr/foliant/internal/blob"
)

const maxUploadBytes = 50 << 20 // 50 MB

// AttachmentHandler accepts and serves attachment blobs.
type AttachmentHandler struct {
	blobs *blob.Store
}

// NewAttachmentHandler creates a handler over the blob store.
func NewAttachmentHandler(blobs *blob.Store) *AttachmentHandler {
	return &AttachmentHandler{blobs: blobs}
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
// The returned id is what content documents reference in their image and
// audio blocks.
//
//	@Summary		Upload an attachment
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Attachment file"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	id, err := h.blobs.Save(OwnerFromContext(r.Context()), data)
	if err != nil {
		writeError(w, "upload attachment", err)
		return
	}
	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		ID:   id,
		Size: int64(len(data)),
		URL:  "/api/attachments/" + id,
	})
}

// ServeFile handles GET /api/attachments/{id}.
//
//	@Summary		Download an attachment
//	@Tags			attachments
//	@Param			id	path	string	true	"Attachment id"
//	@Success		200	"Attachment bytes"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments/{id} [get]
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.blobs.Path(OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid attachment id"))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}
