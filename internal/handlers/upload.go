package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/framestitch/internal/state"
)

// HandleAddMedia imports an uploaded image, video or extracted frame.
// Form fields: file (required), label, source_id and timestamp.
func (h *Handler) HandleAddMedia(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var label *string
	if values, present := r.MultipartForm.Value["label"]; present && len(values) > 0 {
		label = &values[0]
	}

	var timestamp *float64
	if raw := r.FormValue("timestamp"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, "Invalid timestamp: "+raw, http.StatusBadRequest)
			return
		}
		timestamp = &t
	}

	upload := state.Upload{
		Data:        fileData,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}
	result, err := session.Store.AddMediaItem(r.Context(), upload, label, r.FormValue("source_id"), timestamp)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, result)
}

// HandleAddMediaURL imports an image downloaded from a remote URL
func (h *Handler) HandleAddMediaURL(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		ImageURL string  `json:"image_url"`
		Label    *string `json:"label"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	img, err := h.fetcher.Fetch(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	upload := state.Upload{
		Data:        img.Data,
		ContentType: img.ContentType,
		Filename:    img.Filename,
	}
	result, err := session.Store.AddMediaItem(r.Context(), upload, request.Label, "", nil)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, result)
}
