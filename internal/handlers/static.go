package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
)

// HandleBlob serves registered content. The ref may be given with or without
// its blob: scheme.
func (h *Handler) HandleBlob(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	if !strings.HasPrefix(ref, blob.Scheme) {
		ref = blob.Scheme + ref
	}
	if !blob.IsRef(ref) {
		h.writeError(w, "Invalid blob reference", http.StatusBadRequest)
		return
	}

	b, ok := h.blobs.Get(ref)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(b.Data))
}
