package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/framestitch/internal/id"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
	"github.com/lehigh-university-libraries/framestitch/internal/state"
	"github.com/lehigh-university-libraries/framestitch/internal/steps"
	"github.com/lehigh-university-libraries/framestitch/internal/storage"
)

type sessionSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	MediaItems  int       `json:"media_items"`
	CanvasItems int       `json:"canvas_items"`
	CurrentStep int       `json:"current_step"`
}

type sessionResponse struct {
	ID    string          `json:"id" yaml:"id"`
	Steps []steps.Step    `json:"steps" yaml:"steps"`
	State models.AppState `json:"state" yaml:"state"`
}

func newSessionResponse(session *storage.Session) sessionResponse {
	return sessionResponse{
		ID:    session.ID,
		Steps: session.Gate.Steps(),
		State: session.State(),
	}
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := id.New()
	session := storage.NewSession(sessionID, h.blobs, h.resolver,
		state.WithTracker(h.tracker),
		state.WithOptions(h.storeOpts),
	)
	h.sessionStore.Set(sessionID, session)
	slog.Info("Created session", "session_id", sessionID)

	h.writeJSONStatus(w, http.StatusCreated, newSessionResponse(session))
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.GetAll()
	sessionList := make([]sessionSummary, 0, len(sessions))
	for _, session := range sessions {
		sessionList = append(sessionList, sessionSummary{
			ID:          session.ID,
			CreatedAt:   session.CreatedAt,
			MediaItems:  len(session.Store.MediaItems()),
			CanvasItems: session.Store.CanvasLen(),
			CurrentStep: session.Gate.Current(),
		})
	}
	h.writeJSON(w, sessionList)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	resp := newSessionResponse(session)
	if r.URL.Query().Get("format") != "yaml" {
		h.writeJSON(w, resp)
		return
	}

	out, err := yaml.Marshal(resp)
	if err != nil {
		h.writeError(w, "Failed to encode session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(out); err != nil {
		slog.Error("Unable to write YAML response", "err", err)
	}
}

// HandleDeleteSession drops a session, declines any prompt it is waiting on
// and releases every blob it registered.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionStore.Delete(r.PathValue("id"))
	if !ok {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	session.Modals.Unregister(string(models.ConsentProcessing))
	revoked := h.blobs.RevokeOwner(session.ID)
	slog.Info("Deleted session", "session_id", session.ID, "blobs_revoked", revoked, "blobs_remaining", h.blobs.Len())

	h.writeJSON(w, map[string]any{
		"deleted":       true,
		"blobs_revoked": revoked,
	})
}
