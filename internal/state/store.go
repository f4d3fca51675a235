// Package state owns the editing model of a session: the ordered media items,
// their canvas placements, the stitched panorama, consent flags and the undo
// history.
//
// All access goes through Store methods. Mutators that change committed
// collections capture a snapshot immediately before they apply, under the same
// lock, so undo always restores the state that strictly preceded a mutation.
//
// Mutators that resolve dimensions (AddMediaItem, AddToCanvas, SetPanorama)
// release the lock while the resolver runs and take it again to commit. Other
// mutators may run and push their own snapshots during that window, so
// snapshots land in completion order rather than call order, and Undo reverts
// whichever commit finished last.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lehigh-university-libraries/framestitch/internal/id"
	"github.com/lehigh-university-libraries/framestitch/internal/media"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrSourceNotFound  = errors.New("source media item not found")
	ErrAlreadyOnCanvas = errors.New("media item already on canvas")
	ErrUnknownConsent  = errors.New("unknown consent type")
)

// Blobs registers and releases content handles
type Blobs interface {
	Create(owner string, data []byte, contentType string) string
	Revoke(ref string)
}

// Tracker receives analytics events. Implementations must not block.
type Tracker interface {
	Track(category, action, name string)
}

type nopTracker struct{}

func (nopTracker) Track(string, string, string) {}

// Options tune history behaviour
type Options struct {
	// HistoryLimit caps the undo stack; the oldest snapshot is dropped once
	// reached. Zero means unbounded.
	HistoryLimit int
	// SnapshotPanorama makes SetPanorama undoable
	SnapshotPanorama bool
}

// Upload is user content offered to AddMediaItem
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// AddResult identifies a committed media item
type AddResult struct {
	ID      string `json:"id"`
	BlobURL string `json:"blob_url"`
}

// TransformUpdate carries a partial canvas transform. Nil fields are left
// unchanged, so zero is a value that can be set.
type TransformUpdate struct {
	ScaleX *float64 `json:"scale_x,omitempty"`
	ScaleY *float64 `json:"scale_y,omitempty"`
	Angle  *float64 `json:"angle,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// CanvasStagger is the offset between successive default placements
const CanvasStagger = 20

type Store struct {
	mu       sync.Mutex
	owner    string
	blobs    Blobs
	resolver media.DimensionResolver
	tracker  Tracker
	opts     Options

	selected    string
	mediaItems  []models.MediaItem
	canvasItems []models.CanvasItem
	panorama    *models.Panorama
	consents    models.Consents

	history          []models.Snapshot
	canvasGeneration uint64
}

type StoreOption func(*Store)

func WithTracker(t Tracker) StoreOption {
	return func(s *Store) {
		if t != nil {
			s.tracker = t
		}
	}
}

func WithOptions(opts Options) StoreOption {
	return func(s *Store) {
		s.opts = opts
	}
}

// New creates an empty store. owner tags every blob the store registers.
func New(owner string, blobs Blobs, resolver media.DimensionResolver, opts ...StoreOption) *Store {
	s := &Store{
		owner:       owner,
		blobs:       blobs,
		resolver:    resolver,
		tracker:     nopTracker{},
		mediaItems:  []models.MediaItem{},
		canvasItems: []models.CanvasItem{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMediaItem registers an uploaded image or video and commits it once its
// dimensions resolve. A frame extracted from another item passes that item as
// sourceID and is inserted right after it; otherwise the item is appended and
// selected. Nothing is committed and no history is recorded on failure.
func (s *Store) AddMediaItem(ctx context.Context, up Upload, label *string, sourceID string, timestamp *float64) (*AddResult, error) {
	mediaType, contentType, ok := media.Classify(up.ContentType, up.Data)
	if !ok {
		slog.Warn("Unsupported file type", "type", contentType, "filename", up.Filename)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	itemID := id.New()
	ref := s.blobs.Create(s.owner, up.Data, contentType)

	dims, err := s.resolver.Resolve(ctx, ref, mediaType)
	if err != nil {
		slog.Error("Failed to get dimensions", "filename", up.Filename, "err", err)
		s.blobs.Revoke(ref)
		return nil, fmt.Errorf("failed to get dimensions for %s: %w", up.Filename, err)
	}
	if err := checkDimensions(dims); err != nil {
		slog.Error("Resolver returned unusable dimensions", "filename", up.Filename, "err", err)
		s.blobs.Revoke(ref)
		return nil, fmt.Errorf("failed to get dimensions for %s: %w", up.Filename, err)
	}

	item := models.MediaItem{
		ID:            itemID,
		SourceID:      sourceID,
		BlobURL:       ref,
		Filename:      up.Filename,
		Label:         label,
		MediaType:     mediaType,
		NaturalWidth:  dims.Width,
		NaturalHeight: dims.Height,
		CurrentTime:   0,
		Speed:         1,
		Timestamp:     timestamp,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sourceID != "" {
		index := s.mediaIndex(sourceID)
		if index == -1 {
			slog.Warn("Discarding frame for missing source", "source_id", sourceID, "filename", up.Filename)
			s.blobs.Revoke(ref)
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
		}
		s.captureSnapshot()
		s.mediaItems = slices.Insert(s.mediaItems, index+1, item)
	} else {
		s.captureSnapshot()
		s.mediaItems = append(s.mediaItems, item)
		s.selected = item.ID
	}

	s.track("Media", "add_media_item", "file_type_"+string(mediaType))
	return &AddResult{ID: item.ID, BlobURL: ref}, nil
}

// RemoveMediaItem deletes an item unless another item was derived from it.
// It reports whether anything was removed.
func (s *Store) RemoveMediaItem(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureSnapshot()

	if s.hasDependents(itemID) {
		slog.Debug("Refusing to remove media item with dependents", "id", itemID)
		return false
	}

	index := s.mediaIndex(itemID)
	if index == -1 {
		return false
	}
	s.mediaItems = slices.Delete(s.mediaItems, index, index+1)
	if s.selected == itemID {
		s.selected = ""
	}
	s.track("Media", "remove_media_item", "media_library_remove")
	return true
}

// HasDependents reports whether any media item was derived from itemID
func (s *Store) HasDependents(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasDependents(itemID)
}

func (s *Store) UpdateLabel(itemID, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureSnapshot()

	index := s.mediaIndex(itemID)
	if index == -1 {
		return false
	}
	s.mediaItems[index].Label = &label
	return true
}

// UpdatePlaybackTime moves a video's playback cursor. Not undoable.
func (s *Store) UpdatePlaybackTime(itemID string, t float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.mediaIndex(itemID)
	if index == -1 {
		return false
	}
	s.mediaItems[index].CurrentTime = t
	return true
}

// UpdatePlaybackSpeed changes a video's playback rate. Not undoable.
func (s *Store) UpdatePlaybackSpeed(itemID string, speed float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.mediaIndex(itemID)
	if index == -1 {
		return false
	}
	s.mediaItems[index].Speed = speed
	return true
}

// SelectMediaItem points the selection at an existing item
func (s *Store) SelectMediaItem(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mediaIndex(itemID) == -1 {
		return false
	}
	s.selected = itemID
	return true
}

// SelectedMediaItem returns a copy of the selected item, or nil
func (s *Store) SelectedMediaItem() *models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedItem()
}

func (s *Store) MediaItem(itemID string) (models.MediaItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.mediaIndex(itemID)
	if index == -1 {
		return models.MediaItem{}, false
	}
	return s.mediaItems[index].Clone(), true
}

func (s *Store) MediaItems() []models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneMediaItems(s.mediaItems)
}

func (s *Store) Panorama() *models.Panorama {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ClonePanorama(s.panorama)
}

// SetPanorama replaces the panorama with the content at ref once its
// dimensions resolve. On failure the current panorama is kept.
func (s *Store) SetPanorama(ctx context.Context, ref string) error {
	dims, err := s.resolver.Resolve(ctx, ref, models.MediaTypeImage)
	if err != nil {
		slog.Error("Failed to get panorama dimensions", "err", err)
		return fmt.Errorf("failed to get panorama dimensions: %w", err)
	}
	if err := checkDimensions(dims); err != nil {
		return fmt.Errorf("failed to get panorama dimensions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.SnapshotPanorama {
		s.captureSnapshot()
	}
	previous := s.panorama
	s.panorama = &models.Panorama{
		BlobURL:       ref,
		NaturalWidth:  dims.Width,
		NaturalHeight: dims.Height,
	}

	// a replaced composite nothing can restore is released right away
	if previous != nil && previous.BlobURL != ref && !s.referenced(previous.BlobURL) {
		s.blobs.Revoke(previous.BlobURL)
	}
	return nil
}

func (s *Store) Consents() models.Consents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consents
}

func (s *Store) Consent(t models.ConsentType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consents.Get(t)
}

// ToggleConsent sets a consent to value when given, or flips it otherwise.
// It returns the new value.
func (s *Store) ToggleConsent(t models.ConsentType, value *bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var field *bool
	switch t {
	case models.ConsentProcessing:
		field = &s.consents.Processing
	case models.ConsentTracking:
		field = &s.consents.Tracking
	default:
		slog.Warn("Unknown consent type", "type", t)
		return false, fmt.Errorf("%w: %s", ErrUnknownConsent, t)
	}

	if value != nil {
		*field = *value
	} else {
		*field = !*field
	}
	return *field, nil
}

// Track forwards an analytics event when tracking consent is granted
func (s *Store) Track(category, action, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track(category, action, name)
}

// State returns a copy of everything a presentation layer renders
func (s *Store) State() models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.AppState{
		SelectedMediaItem: s.selectedItem(),
		MediaItems:        models.CloneMediaItems(s.mediaItems),
		CanvasItems:       models.CloneCanvasItems(s.canvasItems),
		Panorama:          models.ClonePanorama(s.panorama),
		Consents:          s.consents,
		HistoryDepth:      len(s.history),
		CanvasGeneration:  s.canvasGeneration,
	}
}

// referenced reports whether the live state or any snapshot points at ref.
// Callers hold s.mu.
func (s *Store) referenced(ref string) bool {
	if refersTo(s.mediaItems, s.canvasItems, s.panorama, ref) {
		return true
	}
	for _, snap := range s.history {
		if refersTo(snap.MediaItems, snap.CanvasItems, snap.Panorama, ref) {
			return true
		}
	}
	return false
}

func refersTo(mediaItems []models.MediaItem, canvasItems []models.CanvasItem, panorama *models.Panorama, ref string) bool {
	if panorama != nil && panorama.BlobURL == ref {
		return true
	}
	for _, item := range mediaItems {
		if item.BlobURL == ref {
			return true
		}
	}
	for _, item := range canvasItems {
		if item.BlobURL == ref {
			return true
		}
	}
	return false
}

func (s *Store) track(category, action, name string) {
	if !s.consents.Tracking {
		return
	}
	s.tracker.Track(category, action, name)
}

func (s *Store) selectedItem() *models.MediaItem {
	if s.selected == "" {
		return nil
	}
	index := s.mediaIndex(s.selected)
	if index == -1 {
		return nil
	}
	item := s.mediaItems[index].Clone()
	return &item
}

func (s *Store) mediaIndex(itemID string) int {
	return slices.IndexFunc(s.mediaItems, func(item models.MediaItem) bool {
		return item.ID == itemID
	})
}

func (s *Store) hasDependents(itemID string) bool {
	return slices.ContainsFunc(s.mediaItems, func(item models.MediaItem) bool {
		return item.SourceID != "" && item.SourceID == itemID
	})
}

func checkDimensions(dims media.Dimensions) error {
	if dims.Width <= 0 || dims.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, dims.Width, dims.Height)
	}
	return nil
}
