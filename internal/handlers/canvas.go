package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/framestitch/internal/models"
	"github.com/lehigh-university-libraries/framestitch/internal/state"
)

// HandleAddCanvas places an image media item on the canvas
func (h *Handler) HandleAddCanvas(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		SourceID string `json:"source_id"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.SourceID == "" {
		h.writeError(w, "source_id is required", http.StatusBadRequest)
		return
	}

	source, exists := session.Store.MediaItem(request.SourceID)
	if !exists {
		h.writeError(w, "Media item not found", http.StatusNotFound)
		return
	}
	if source.MediaType != models.MediaTypeImage {
		h.writeError(w, "Only images can be placed on the canvas", http.StatusUnprocessableEntity)
		return
	}

	item, err := session.Store.AddToCanvas(r.Context(), source.ID, source.BlobURL)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	h.writeJSONStatus(w, http.StatusCreated, item)
}

// HandleUpdateCanvas moves, transforms or crops a canvas item. Only the
// fields present in the body change.
func (h *Handler) HandleUpdateCanvas(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("cid")

	var request struct {
		state.TransformUpdate
		CropBox *models.CropBox `json:"crop_box"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	u := request.TransformUpdate
	hasTransform := u.X != nil || u.Y != nil || u.ScaleX != nil || u.ScaleY != nil || u.Angle != nil
	if !hasTransform && request.CropBox == nil {
		h.writeError(w, "Nothing to update", http.StatusBadRequest)
		return
	}
	if !session.Store.UpdateCanvasItem(itemID, u, request.CropBox) {
		h.writeError(w, "Canvas item not found", http.StatusNotFound)
		return
	}

	for _, item := range session.Store.CanvasItems() {
		if item.ID == itemID {
			h.writeJSON(w, item)
			return
		}
	}
	h.writeError(w, "Canvas item not found", http.StatusNotFound)
}

// HandleDeleteCanvas removes the listed canvas items, or clears the canvas
// when no ids are given
func (h *Handler) HandleDeleteCanvas(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		IDs []string `json:"ids"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	if len(request.IDs) == 0 {
		cleared := session.Store.CanvasLen()
		session.Store.ClearCanvasItems()
		h.writeJSON(w, map[string]any{"removed": cleared})
		return
	}
	h.writeJSON(w, map[string]any{"removed": session.Store.RemoveFromCanvasItems(request.IDs)})
}
