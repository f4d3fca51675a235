package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/framestitch/internal/models"
	"github.com/lehigh-university-libraries/framestitch/internal/state"
)

func (h *Handler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	undone := session.Store.Undo()
	h.writeJSON(w, map[string]any{
		"undone": undone,
		"state":  session.State(),
	})
}

// HandleConsent sets a consent when value is given and flips it otherwise
func (h *Handler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		Value *bool `json:"value"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	consentType := models.ConsentType(r.PathValue("type"))
	value, err := session.Store.ToggleConsent(consentType, request.Value)
	if errors.Is(err, state.ErrUnknownConsent) {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, map[string]any{
		"type":  consentType,
		"value": value,
	})
}

// HandleStep moves the workflow. step is next, prev or a step index. Jumping
// to the consent step may wait until the processing prompt is answered.
func (h *Handler) HandleStep(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var moved bool
	switch step := r.PathValue("step"); step {
	case "next":
		moved = session.Gate.Next()
	case "prev":
		moved = session.Gate.Prev()
	default:
		index, err := strconv.Atoi(step)
		if err != nil {
			h.writeError(w, "Invalid step: "+step, http.StatusBadRequest)
			return
		}
		moved, err = session.Gate.GoTo(r.Context(), index)
		if err != nil {
			h.writeError(w, "Step change aborted: "+err.Error(), http.StatusRequestTimeout)
			return
		}
	}

	h.writeJSON(w, map[string]any{
		"moved":        moved,
		"current_step": session.Gate.Current(),
	})
}

// HandleModalAnswer answers a pending prompt
func (h *Handler) HandleModalAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		Answer *bool `json:"answer"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.Answer == nil {
		h.writeError(w, "answer is required", http.StatusBadRequest)
		return
	}

	name := r.PathValue("name")
	h.writeJSON(w, map[string]any{
		"name":     name,
		"resolved": session.Modals.Resolve(name, *request.Answer),
	})
}

func (h *Handler) HandleModalStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	h.writeJSON(w, map[string]any{
		"name":    name,
		"pending": session.Modals.Pending(name),
	})
}
