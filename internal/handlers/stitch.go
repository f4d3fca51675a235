package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/framestitch/internal/stitch"
)

// HandleStitch sends the canvas to the stitching service and stores the
// result as the session's panorama
func (h *Handler) HandleStitch(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if h.stitcher == nil {
		h.writeError(w, "Stitching service not configured", http.StatusServiceUnavailable)
		return
	}

	items := session.Store.CanvasItems()
	data, contentType, err := h.stitcher.Stitch(r.Context(), items, session.Store)
	if err != nil {
		var serviceErr *stitch.Error
		switch {
		case errors.Is(err, stitch.ErrNoImages):
			h.writeError(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &serviceErr):
			h.writeJSONStatus(w, http.StatusBadGateway, map[string]any{"message": serviceErr.Message})
		default:
			h.writeJSONStatus(w, http.StatusBadGateway, map[string]any{"message": stitch.DefaultMessage})
		}
		return
	}

	ref := h.blobs.Create(session.ID, data, contentType)
	if err := session.Store.SetPanorama(r.Context(), ref); err != nil {
		h.blobs.Revoke(ref)
		h.writeResolveError(w, err)
		return
	}
	slog.Info("Stitched panorama", "session_id", session.ID, "images", len(items), "bytes", len(data))

	h.writeJSON(w, session.Store.Panorama())
}
