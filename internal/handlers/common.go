package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
	"github.com/lehigh-university-libraries/framestitch/internal/feedback"
	"github.com/lehigh-university-libraries/framestitch/internal/images"
	"github.com/lehigh-university-libraries/framestitch/internal/media"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
	"github.com/lehigh-university-libraries/framestitch/internal/state"
	"github.com/lehigh-university-libraries/framestitch/internal/stitch"
	"github.com/lehigh-university-libraries/framestitch/internal/storage"
)

// DefaultMaxUploadBytes bounds a single media upload
const DefaultMaxUploadBytes = 200 << 20

// Stitcher produces a panorama from canvas items
type Stitcher interface {
	Stitch(ctx context.Context, items []models.CanvasItem, tracker stitch.Tracker) ([]byte, string, error)
}

// Deps are the collaborators shared by every session
type Deps struct {
	Blobs          *blob.Registry
	Resolver       media.DimensionResolver
	Tracker        state.Tracker
	Stitcher       Stitcher
	Fetcher        *images.Fetcher
	Feedback       feedback.Store
	StoreOptions   state.Options
	MaxUploadBytes int64
}

type Handler struct {
	sessionStore *storage.SessionStore
	blobs        *blob.Registry
	resolver     media.DimensionResolver
	tracker      state.Tracker
	stitcher     Stitcher
	fetcher      *images.Fetcher
	feedback     feedback.Store
	storeOpts    state.Options
	maxUpload    int64
}

func New(deps Deps) *Handler {
	h := &Handler{
		sessionStore: storage.New(),
		blobs:        deps.Blobs,
		resolver:     deps.Resolver,
		tracker:      deps.Tracker,
		stitcher:     deps.Stitcher,
		fetcher:      deps.Fetcher,
		feedback:     deps.Feedback,
		storeOpts:    deps.StoreOptions,
		maxUpload:    deps.MaxUploadBytes,
	}
	if h.blobs == nil {
		h.blobs = blob.New()
	}
	if h.resolver == nil {
		h.resolver = media.NewResolver(h.blobs)
	}
	if h.fetcher == nil {
		h.fetcher = images.NewFetcher()
	}
	if h.feedback == nil {
		h.feedback = feedback.NewMemoryStore()
	}
	if h.maxUpload <= 0 {
		h.maxUpload = DefaultMaxUploadBytes
	}
	return h
}

// Routes registers every API endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions", h.HandleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)

	mux.HandleFunc("POST /api/sessions/{id}/media", h.HandleAddMedia)
	mux.HandleFunc("POST /api/sessions/{id}/media/url", h.HandleAddMediaURL)
	mux.HandleFunc("PATCH /api/sessions/{id}/media/{mid}", h.HandleUpdateMedia)
	mux.HandleFunc("DELETE /api/sessions/{id}/media/{mid}", h.HandleDeleteMedia)
	mux.HandleFunc("POST /api/sessions/{id}/media/{mid}/select", h.HandleSelectMedia)

	mux.HandleFunc("POST /api/sessions/{id}/canvas", h.HandleAddCanvas)
	mux.HandleFunc("PATCH /api/sessions/{id}/canvas/{cid}", h.HandleUpdateCanvas)
	mux.HandleFunc("DELETE /api/sessions/{id}/canvas", h.HandleDeleteCanvas)

	mux.HandleFunc("POST /api/sessions/{id}/undo", h.HandleUndo)
	mux.HandleFunc("POST /api/sessions/{id}/consents/{type}", h.HandleConsent)
	mux.HandleFunc("POST /api/sessions/{id}/steps/{step}", h.HandleStep)
	mux.HandleFunc("POST /api/sessions/{id}/modals/{name}", h.HandleModalAnswer)
	mux.HandleFunc("GET /api/sessions/{id}/modals/{name}", h.HandleModalStatus)
	mux.HandleFunc("POST /api/sessions/{id}/stitch", h.HandleStitch)

	mux.HandleFunc("GET /blob/{ref}", h.HandleBlob)
	mux.HandleFunc("POST /api/feedback", h.HandleFeedback)

	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

// decodeJSON reads an optional JSON body into v. An empty body leaves v
// untouched.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
	return false
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*storage.Session, bool) {
	session, exists := h.sessionStore.Get(r.PathValue("id"))
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// writeResolveError maps media and state failures onto HTTP statuses
func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrUnsupportedType):
		h.writeError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, state.ErrSourceNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, state.ErrAlreadyOnCanvas):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, media.ErrInvalidInput),
		errors.Is(err, media.ErrLoad),
		errors.Is(err, media.ErrInvalidDimensions),
		errors.Is(err, media.ErrTimeout):
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, err.Error(), http.StatusRequestTimeout)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
