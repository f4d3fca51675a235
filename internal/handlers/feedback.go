package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type feedbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleFeedback stores an arbitrary JSON feedback object
func (h *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSONStatus(w, http.StatusBadRequest, feedbackResponse{
			Status:  "error",
			Message: "errorSavingFeedback",
			Error:   "Invalid JSON: " + err.Error(),
		})
		return
	}

	feedbackID, err := h.feedback.Save(r.Context(), payload)
	if err != nil {
		slog.Error("Failed to save feedback", "err", err)
		h.writeJSONStatus(w, http.StatusInternalServerError, feedbackResponse{
			Status:  "error",
			Message: "errorSavingFeedback",
			Error:   err.Error(),
		})
		return
	}

	h.writeJSON(w, feedbackResponse{
		Status:  "success",
		Message: "feedbackSuccessfullySaved",
		ID:      feedbackID,
	})
}
