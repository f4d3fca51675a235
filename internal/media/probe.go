package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/barasher/go-exiftool"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
)

// ImageProber reads image dimensions from the encoded header without decoding
// pixel data.
type ImageProber struct{}

func (ImageProber) Probe(_ context.Context, b *blob.Blob) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(b.Reader())
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// ExifToolProber reads video dimensions from container metadata. The exiftool
// binary is started on first use and shared by all probes.
type ExifToolProber struct {
	once sync.Once
	et   *exiftool.Exiftool
	err  error
	mu   sync.Mutex
}

func NewExifToolProber() *ExifToolProber {
	return &ExifToolProber{}
}

func (p *ExifToolProber) Probe(_ context.Context, b *blob.Blob) (Dimensions, error) {
	p.once.Do(func() {
		p.et, p.err = exiftool.NewExiftool()
	})
	if p.err != nil {
		return Dimensions{}, fmt.Errorf("failed to start exiftool: %w", p.err)
	}

	// exiftool works on paths, so the blob is spilled to a temporary file
	tmp, err := os.CreateTemp("", "framestitch-probe-*"+extensionFor(b.ContentType))
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to create probe file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b.Data); err != nil {
		tmp.Close()
		return Dimensions{}, fmt.Errorf("failed to write probe file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Dimensions{}, fmt.Errorf("failed to close probe file: %w", err)
	}

	p.mu.Lock()
	infos := p.et.ExtractMetadata(tmp.Name())
	p.mu.Unlock()

	if len(infos) == 0 {
		return Dimensions{}, fmt.Errorf("exiftool returned no metadata")
	}
	info := infos[0]
	if info.Err != nil {
		return Dimensions{}, fmt.Errorf("failed to read video metadata: %w", info.Err)
	}

	width, err := info.GetInt("ImageWidth")
	if err != nil {
		return Dimensions{}, fmt.Errorf("missing video width: %w", err)
	}
	height, err := info.GetInt("ImageHeight")
	if err != nil {
		return Dimensions{}, fmt.Errorf("missing video height: %w", err)
	}
	return Dimensions{Width: int(width), Height: int(height)}, nil
}

// Close stops the exiftool process if one was started
func (p *ExifToolProber) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.et == nil {
		return nil
	}
	return p.et.Close()
}

func extensionFor(contentType string) string {
	switch contentType {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	case "video/x-msvideo":
		return ".avi"
	}
	return ""
}
