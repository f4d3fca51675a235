package models

// MediaType distinguishes still images from videos
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Valid reports whether t is a known media type
func (t MediaType) Valid() bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

// ConsentType names a consent category
type ConsentType string

const (
	ConsentProcessing ConsentType = "processing"
	ConsentTracking   ConsentType = "tracking"
)

// MediaItem represents an imported image or video, or a frame extracted from one
type MediaItem struct {
	ID            string    `json:"id" yaml:"id"`
	SourceID      string    `json:"source_id,omitempty" yaml:"source_id,omitempty"` // parent item for extracted frames
	BlobURL       string    `json:"blob_url" yaml:"blob_url"`
	Filename      string    `json:"filename" yaml:"filename"`
	Label         *string   `json:"label,omitempty" yaml:"label,omitempty"`
	MediaType     MediaType `json:"media_type" yaml:"media_type"`
	NaturalWidth  int       `json:"natural_width" yaml:"natural_width"`
	NaturalHeight int       `json:"natural_height" yaml:"natural_height"`
	CurrentTime   float64   `json:"current_time" yaml:"current_time"`
	Speed         float64   `json:"speed" yaml:"speed"`
	Timestamp     *float64  `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // playback moment a frame was taken at
}

// CropBox holds left, top, right, bottom as fractions of the source image
type CropBox [4]float64

// FullFrame is the default crop box
var FullFrame = CropBox{0, 0, 1, 1}

// CanvasItem represents a media item placed on the composition canvas
type CanvasItem struct {
	ID            string   `json:"id" yaml:"id"`
	SourceID      string   `json:"source_id" yaml:"source_id"`
	BlobURL       string   `json:"blob_url" yaml:"blob_url"`
	NaturalWidth  int      `json:"natural_width" yaml:"natural_width"`
	NaturalHeight int      `json:"natural_height" yaml:"natural_height"`
	X             float64  `json:"x" yaml:"x"`
	Y             float64  `json:"y" yaml:"y"`
	ScaleX        *float64 `json:"scale_x,omitempty" yaml:"scale_x,omitempty"`
	ScaleY        *float64 `json:"scale_y,omitempty" yaml:"scale_y,omitempty"`
	Angle         *float64 `json:"angle,omitempty" yaml:"angle,omitempty"`
	CropBox       CropBox  `json:"crop_box" yaml:"crop_box"`
}

// Panorama is the composite returned by the stitching service
type Panorama struct {
	BlobURL       string `json:"blob_url" yaml:"blob_url"`
	NaturalWidth  int    `json:"natural_width" yaml:"natural_width"`
	NaturalHeight int    `json:"natural_height" yaml:"natural_height"`
}

// Consents tracks what the user agreed to
type Consents struct {
	Processing bool `json:"processing" yaml:"processing"`
	Tracking   bool `json:"tracking" yaml:"tracking"`
}

// Get returns the value for a consent type
func (c Consents) Get(t ConsentType) bool {
	switch t {
	case ConsentProcessing:
		return c.Processing
	case ConsentTracking:
		return c.Tracking
	}
	return false
}

// Snapshot is an independent copy of the undoable part of a session
type Snapshot struct {
	MediaItems  []MediaItem
	CanvasItems []CanvasItem
	Panorama    *Panorama
	Consents    Consents
}

// AppState is the read view of a session handed to the presentation layer
type AppState struct {
	SelectedMediaItem *MediaItem   `json:"selected_media_item,omitempty" yaml:"selected_media_item,omitempty"`
	MediaItems        []MediaItem  `json:"media_items" yaml:"media_items"`
	CanvasItems       []CanvasItem `json:"canvas_items" yaml:"canvas_items"`
	Panorama          *Panorama    `json:"panorama,omitempty" yaml:"panorama,omitempty"`
	Consents          Consents     `json:"consents" yaml:"consents"`
	HistoryDepth      int          `json:"history_depth" yaml:"history_depth"`
	CanvasGeneration  uint64       `json:"canvas_generation" yaml:"canvas_generation"`
	CurrentStep       int          `json:"current_step" yaml:"current_step"`
}

// Clone returns a deep copy of the item
func (m MediaItem) Clone() MediaItem {
	out := m
	out.Label = clonePtr(m.Label)
	out.Timestamp = clonePtr(m.Timestamp)
	return out
}

// Clone returns a deep copy of the item
func (c CanvasItem) Clone() CanvasItem {
	out := c
	out.ScaleX = clonePtr(c.ScaleX)
	out.ScaleY = clonePtr(c.ScaleY)
	out.Angle = clonePtr(c.Angle)
	return out
}

// CloneMediaItems deep-copies a media item slice, preserving nil vs empty
func CloneMediaItems(items []MediaItem) []MediaItem {
	if items == nil {
		return nil
	}
	out := make([]MediaItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// CloneCanvasItems deep-copies a canvas item slice, preserving nil vs empty
func CloneCanvasItems(items []CanvasItem) []CanvasItem {
	if items == nil {
		return nil
	}
	out := make([]CanvasItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// ClonePanorama copies p, returning nil for nil
func ClonePanorama(p *Panorama) *Panorama {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
