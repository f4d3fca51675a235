package handlers

import (
	"net/http"
)

// HandleUpdateMedia applies any of label, current_time and speed
func (h *Handler) HandleUpdateMedia(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("mid")

	var request struct {
		Label       *string  `json:"label"`
		CurrentTime *float64 `json:"current_time"`
		Speed       *float64 `json:"speed"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.Label == nil && request.CurrentTime == nil && request.Speed == nil {
		h.writeError(w, "Nothing to update", http.StatusBadRequest)
		return
	}
	if request.Speed != nil && *request.Speed <= 0 {
		h.writeError(w, "speed must be positive", http.StatusBadRequest)
		return
	}
	if _, exists := session.Store.MediaItem(itemID); !exists {
		h.writeError(w, "Media item not found", http.StatusNotFound)
		return
	}

	if request.Label != nil {
		session.Store.UpdateLabel(itemID, *request.Label)
	}
	if request.CurrentTime != nil {
		session.Store.UpdatePlaybackTime(itemID, *request.CurrentTime)
	}
	if request.Speed != nil {
		session.Store.UpdatePlaybackSpeed(itemID, *request.Speed)
	}

	item, exists := session.Store.MediaItem(itemID)
	if !exists {
		h.writeError(w, "Media item not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, item)
}

// HandleDeleteMedia removes a media item. Items that other items were
// extracted from are kept and reported with 409.
func (h *Handler) HandleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("mid")

	if session.Store.RemoveMediaItem(itemID) {
		h.writeJSON(w, map[string]any{"removed": true})
		return
	}
	if session.Store.HasDependents(itemID) {
		h.writeJSONStatus(w, http.StatusConflict, map[string]any{
			"removed": false,
			"reason":  "media item has extracted frames",
		})
		return
	}
	h.writeJSONStatus(w, http.StatusNotFound, map[string]any{"removed": false})
}

func (h *Handler) HandleSelectMedia(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if !session.Store.SelectMediaItem(r.PathValue("mid")) {
		h.writeError(w, "Media item not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, session.Store.SelectedMediaItem())
}
