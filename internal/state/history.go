package state

import (
	"github.com/lehigh-university-libraries/framestitch/internal/metrics"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

// captureSnapshot pushes a deep copy of the undoable state. Callers hold s.mu
// and call it right before the mutation it protects.
func (s *Store) captureSnapshot() {
	s.history = append(s.history, models.Snapshot{
		MediaItems:  models.CloneMediaItems(s.mediaItems),
		CanvasItems: models.CloneCanvasItems(s.canvasItems),
		Panorama:    models.ClonePanorama(s.panorama),
		Consents:    s.consents,
	})
	if limit := s.opts.HistoryLimit; limit > 0 && len(s.history) > limit {
		drop := len(s.history) - limit
		clear(s.history[:drop])
		s.history = s.history[drop:]
	}
	metrics.HistoryPushes.Inc()
}

// Undo restores the most recent snapshot and reports whether there was one.
// Canvas items are replaced wholesale and CanvasGeneration is bumped so that
// renderers rebuild their canvas objects instead of diffing them.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return false
	}
	last := len(s.history) - 1
	prev := s.history[last]
	s.history[last] = models.Snapshot{}
	s.history = s.history[:last]

	// the snapshot leaves the stack here, so it can be adopted without copying
	s.mediaItems = prev.MediaItems
	s.panorama = prev.Panorama
	s.consents = prev.Consents
	s.canvasItems = prev.CanvasItems
	s.canvasGeneration++

	if s.selected != "" && s.mediaIndex(s.selected) == -1 {
		s.selected = ""
	}

	metrics.Undos.Inc()
	return true
}

func (s *Store) HistoryDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// CanvasGeneration changes whenever the canvas collection is replaced wholesale
func (s *Store) CanvasGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvasGeneration
}
