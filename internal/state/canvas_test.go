package state

import (
	"context"
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/framestitch/internal/media"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

func addCanvas(t *testing.T, s *Store, sourceID, ref string) *models.CanvasItem {
	t.Helper()
	item, err := s.AddToCanvas(context.Background(), sourceID, ref)
	if err != nil {
		t.Fatalf("AddToCanvas failed: %v", err)
	}
	return item
}

func TestAddToCanvas(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/jpeg", "canvas-test.jpg"), nil, "")

	addCanvas(t, s, a.ID, a.BlobURL)

	items := s.CanvasItems()
	if len(items) != 1 {
		t.Fatalf("Expected 1 canvas item, got %d", len(items))
	}
	item := items[0]
	if item.SourceID != a.ID || item.BlobURL != a.BlobURL {
		t.Errorf("Unexpected source/blob: %+v", item)
	}
	if item.NaturalWidth != 100 || item.NaturalHeight != 100 {
		t.Errorf("Expected 100x100, got %dx%d", item.NaturalWidth, item.NaturalHeight)
	}
	if item.CropBox != models.FullFrame {
		t.Errorf("Expected full frame crop, got %v", item.CropBox)
	}
	if item.ScaleX != nil || item.ScaleY != nil || item.Angle != nil {
		t.Error("Expected transform to be unset")
	}
}

func TestAddToCanvasDuplicate(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/jpeg", "a.jpg"), nil, "")

	addCanvas(t, s, a.ID, a.BlobURL)
	depth := s.HistoryDepth()

	if _, err := s.AddToCanvas(context.Background(), a.ID, a.BlobURL); !errors.Is(err, ErrAlreadyOnCanvas) {
		t.Errorf("Expected ErrAlreadyOnCanvas, got %v", err)
	}
	if s.CanvasLen() != 1 {
		t.Errorf("Expected exactly 1 canvas item, got %d", s.CanvasLen())
	}
	if s.HistoryDepth() != depth {
		t.Error("Expected refused placement not to be recorded")
	}
}

func TestAddToCanvasConcurrentDuplicate(t *testing.T) {
	s, res, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/jpeg", "a.jpg"), nil, "")

	gate := make(chan struct{})
	res.mu.Lock()
	res.gate = gate
	res.mu.Unlock()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.AddToCanvas(context.Background(), a.ID, a.BlobURL)
			errs <- err
		}()
	}
	close(gate)

	var refused int
	for i := 0; i < 2; i++ {
		if err := <-errs; errors.Is(err, ErrAlreadyOnCanvas) {
			refused++
		}
	}
	if refused != 1 || s.CanvasLen() != 1 {
		t.Errorf("Expected one placement and one refusal, got %d items, %d refused", s.CanvasLen(), refused)
	}
}

func TestAddToCanvasResolutionFailure(t *testing.T) {
	s, res, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/jpeg", "a.jpg"), nil, "")
	depth := s.HistoryDepth()

	res.err = media.ErrInvalidDimensions
	if _, err := s.AddToCanvas(context.Background(), a.ID, a.BlobURL); !errors.Is(err, media.ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
	if s.CanvasLen() != 0 || s.HistoryDepth() != depth {
		t.Error("Expected failed placement to leave canvas and history untouched")
	}
}

func TestStaggeredPlacement(t *testing.T) {
	s, _, _ := newTestStore(t)

	for i := 0; i < 3; i++ {
		a := mustAdd(t, s, upload("image/png", "x.png"), nil, "")
		addCanvas(t, s, a.ID, a.BlobURL)
	}

	want := [][2]float64{{0, 0}, {20, 20}, {40, 40}}
	for i, item := range s.CanvasItems() {
		if item.X != want[i][0] || item.Y != want[i][1] {
			t.Errorf("Item %d: expected (%v,%v), got (%v,%v)", i, want[i][0], want[i][1], item.X, item.Y)
		}
	}
}

func TestUpdatePosition(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/png", "a.png"), nil, "")
	c := addCanvas(t, s, a.ID, a.BlobURL)

	if !s.UpdatePosition(c.ID, 50, 75) {
		t.Fatal("Expected position update to succeed")
	}
	item := s.CanvasItems()[0]
	if item.X != 50 || item.Y != 75 {
		t.Errorf("Expected (50,75), got (%v,%v)", item.X, item.Y)
	}
	if s.UpdatePosition("missing", 1, 1) {
		t.Error("Expected update on unknown id to report false")
	}
}

func TestUpdateTransform(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/png", "a.png"), nil, "")
	c := addCanvas(t, s, a.ID, a.BlobURL)

	s.UpdateTransform(c.ID, TransformUpdate{
		ScaleX: f64Ptr(1.5),
		ScaleY: f64Ptr(0.8),
		Angle:  f64Ptr(45),
		X:      f64Ptr(100),
		Y:      f64Ptr(200),
	})

	item := s.CanvasItems()[0]
	if *item.ScaleX != 1.5 || *item.ScaleY != 0.8 || *item.Angle != 45 || item.X != 100 || item.Y != 200 {
		t.Errorf("Unexpected transform %+v", item)
	}
}

func TestUpdateTransformPartial(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/png", "a.png"), nil, "")
	c := addCanvas(t, s, a.ID, a.BlobURL)
	s.UpdateTransform(c.ID, TransformUpdate{ScaleX: f64Ptr(2), ScaleY: f64Ptr(3), X: f64Ptr(10), Y: f64Ptr(20)})

	s.UpdateTransform(c.ID, TransformUpdate{Angle: f64Ptr(45)})

	item := s.CanvasItems()[0]
	if *item.Angle != 45 {
		t.Errorf("Expected angle 45, got %v", *item.Angle)
	}
	if item.X != 10 || item.Y != 20 || *item.ScaleX != 2 || *item.ScaleY != 3 {
		t.Errorf("Expected other fields untouched, got %+v", item)
	}

	// zero is a value, not an omission
	s.UpdateTransform(c.ID, TransformUpdate{X: f64Ptr(0), Angle: f64Ptr(0)})
	item = s.CanvasItems()[0]
	if item.X != 0 || *item.Angle != 0 || item.Y != 20 {
		t.Errorf("Expected explicit zeros applied, got %+v", item)
	}
}

func TestSetCropBox(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/png", "a.png"), nil, "")
	c := addCanvas(t, s, a.ID, a.BlobURL)

	box := models.CropBox{0.1, 0.2, 0.8, 0.9}
	s.SetCropBox(c.ID, box)
	if got := s.CanvasItems()[0].CropBox; got != box {
		t.Errorf("Expected %v, got %v", box, got)
	}

	// out of range values are stored as given
	loose := models.CropBox{-0.5, 0, 1.5, 2}
	s.SetCropBox(c.ID, loose)
	if got := s.CanvasItems()[0].CropBox; got != loose {
		t.Errorf("Expected %v, got %v", loose, got)
	}
}

func TestRemoveAndClearCanvas(t *testing.T) {
	s, _, _ := newTestStore(t)
	var ids []string
	for i := 0; i < 3; i++ {
		a := mustAdd(t, s, upload("image/png", "a.png"), nil, "")
		ids = append(ids, addCanvas(t, s, a.ID, a.BlobURL).ID)
	}

	if n := s.RemoveFromCanvasItems([]string{ids[0], ids[2], "missing"}); n != 2 {
		t.Errorf("Expected 2 removed, got %d", n)
	}
	items := s.CanvasItems()
	if len(items) != 1 || items[0].ID != ids[1] {
		t.Errorf("Expected only middle item left, got %+v", items)
	}

	s.ClearCanvasItems()
	if s.CanvasLen() != 0 {
		t.Errorf("Expected empty canvas, got %d", s.CanvasLen())
	}
}

func TestUpdateCanvasItemIsOneEdit(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, upload("image/png", "a.png"), nil, "")
	c := addCanvas(t, s, a.ID, a.BlobURL)
	depth := s.HistoryDepth()

	box := models.CropBox{0.1, 0.1, 0.9, 0.9}
	if !s.UpdateCanvasItem(c.ID, TransformUpdate{X: f64Ptr(50), Angle: f64Ptr(30)}, &box) {
		t.Fatal("Expected update to succeed")
	}
	item := s.CanvasItems()[0]
	if item.X != 50 || *item.Angle != 30 || item.CropBox != box {
		t.Errorf("Unexpected item %+v", item)
	}
	if s.HistoryDepth() != depth+1 {
		t.Errorf("Expected one history entry, got %d", s.HistoryDepth()-depth)
	}

	s.Undo()
	item = s.CanvasItems()[0]
	if item.X != 0 || item.Angle != nil || item.CropBox != models.FullFrame {
		t.Errorf("Expected one undo to restore both fields, got %+v", item)
	}

	if s.UpdateCanvasItem("missing", TransformUpdate{X: f64Ptr(1)}, nil) {
		t.Error("Expected update on unknown id to report false")
	}
}
