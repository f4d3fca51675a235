package state

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/lehigh-university-libraries/framestitch/internal/id"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

// AddToCanvas places a media item on the canvas. Each source may be placed at
// most once; a second placement is refused with ErrAlreadyOnCanvas. New items
// cascade down and right from the origin in steps of CanvasStagger.
func (s *Store) AddToCanvas(ctx context.Context, sourceID, ref string) (*models.CanvasItem, error) {
	s.mu.Lock()
	placed := s.onCanvas(sourceID)
	s.mu.Unlock()
	if placed {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOnCanvas, sourceID)
	}

	dims, err := s.resolver.Resolve(ctx, ref, models.MediaTypeImage)
	if err != nil {
		slog.Error("Failed to get canvas item dimensions", "source_id", sourceID, "err", err)
		return nil, fmt.Errorf("failed to get canvas item dimensions: %w", err)
	}
	if err := checkDimensions(dims); err != nil {
		return nil, fmt.Errorf("failed to get canvas item dimensions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another placement of the same source may have committed while resolving
	if s.onCanvas(sourceID) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOnCanvas, sourceID)
	}

	s.captureSnapshot()

	offset := float64(len(s.canvasItems) * CanvasStagger)
	item := models.CanvasItem{
		ID:            id.New(),
		SourceID:      sourceID,
		BlobURL:       ref,
		NaturalWidth:  dims.Width,
		NaturalHeight: dims.Height,
		X:             offset,
		Y:             offset,
		CropBox:       models.FullFrame,
	}
	s.canvasItems = append(s.canvasItems, item)

	s.track("Canvas", "add_to_canvas", "media_item_added")
	out := item.Clone()
	return &out, nil
}

func (s *Store) UpdatePosition(itemID string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureSnapshot()

	index := s.canvasIndex(itemID)
	if index == -1 {
		return false
	}
	s.canvasItems[index].X = x
	s.canvasItems[index].Y = y
	return true
}

// UpdateTransform applies only the fields present in u
func (s *Store) UpdateTransform(itemID string, u TransformUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureSnapshot()

	index := s.canvasIndex(itemID)
	if index == -1 {
		return false
	}
	applyTransform(&s.canvasItems[index], u)
	return true
}

func applyTransform(item *models.CanvasItem, u TransformUpdate) {
	if u.ScaleX != nil {
		v := *u.ScaleX
		item.ScaleX = &v
	}
	if u.ScaleY != nil {
		v := *u.ScaleY
		item.ScaleY = &v
	}
	if u.Angle != nil {
		v := *u.Angle
		item.Angle = &v
	}
	if u.X != nil {
		item.X = *u.X
	}
	if u.Y != nil {
		item.Y = *u.Y
	}
}

// UpdateCanvasItem applies a partial transform and, when box is non-nil, a
// new crop box as one undoable edit
func (s *Store) UpdateCanvasItem(itemID string, u TransformUpdate, box *models.CropBox) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.canvasIndex(itemID)
	if index == -1 {
		return false
	}
	s.captureSnapshot()
	applyTransform(&s.canvasItems[index], u)
	if box != nil {
		s.canvasItems[index].CropBox = *box
	}
	return true
}

// RemoveFromCanvasItems removes every listed canvas item and returns how many
// were found.
func (s *Store) RemoveFromCanvasItems(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureSnapshot()

	before := len(s.canvasItems)
	s.canvasItems = slices.DeleteFunc(s.canvasItems, func(item models.CanvasItem) bool {
		return slices.Contains(ids, item.ID)
	})
	return before - len(s.canvasItems)
}

func (s *Store) ClearCanvasItems() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureSnapshot()
	s.canvasItems = []models.CanvasItem{}
	s.track("Canvas", "clear_canvas", "canvas_cleared")
}

// SetCropBox replaces a crop box as given. Values are not clamped to [0,1].
func (s *Store) SetCropBox(itemID string, box models.CropBox) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureSnapshot()

	index := s.canvasIndex(itemID)
	if index == -1 {
		return false
	}
	s.canvasItems[index].CropBox = box
	return true
}

func (s *Store) CanvasItems() []models.CanvasItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneCanvasItems(s.canvasItems)
}

func (s *Store) CanvasLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.canvasItems)
}

func (s *Store) onCanvas(sourceID string) bool {
	return slices.ContainsFunc(s.canvasItems, func(item models.CanvasItem) bool {
		return item.SourceID == sourceID
	})
}

func (s *Store) canvasIndex(itemID string) int {
	return slices.IndexFunc(s.canvasItems, func(item models.CanvasItem) bool {
		return item.ID == itemID
	})
}
