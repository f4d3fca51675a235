// Package media resolves the intrinsic pixel dimensions of registered content.
//
// Resolution happens off the caller's goroutine and is bounded by a timeout.
// Exactly one outcome is ever reported per call: a late probe result that
// arrives after the timeout fired is discarded.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
	"github.com/lehigh-university-libraries/framestitch/internal/metrics"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

// DefaultTimeout bounds a single resolution
const DefaultTimeout = 10 * time.Second

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrLoad              = errors.New("failed to load media")
	ErrInvalidDimensions = errors.New("media loaded but has invalid dimensions")
	ErrTimeout           = errors.New("timeout loading media dimensions")
)

// Dimensions is an intrinsic width and height in pixels
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DimensionResolver is what the state store depends on
type DimensionResolver interface {
	Resolve(ctx context.Context, ref string, mediaType models.MediaType) (Dimensions, error)
}

// Source looks up registered content by reference
type Source interface {
	Get(ref string) (*blob.Blob, bool)
}

// Prober reads the size of one kind of media
type Prober interface {
	Probe(ctx context.Context, b *blob.Blob) (Dimensions, error)
}

type Resolver struct {
	source  Source
	probers map[models.MediaType]Prober
	timeout time.Duration
}

type Option func(*Resolver)

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithProber replaces the prober used for a media type
func WithProber(mediaType models.MediaType, p Prober) Option {
	return func(r *Resolver) {
		r.probers[mediaType] = p
	}
}

// NewResolver creates a resolver reading from source. Images are probed by
// decoding their header and videos through ExifTool.
func NewResolver(source Source, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		probers: map[models.MediaType]Prober{
			models.MediaTypeImage: ImageProber{},
			models.MediaTypeVideo: NewExifToolProber(),
		},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type probeResult struct {
	dims Dimensions
	err  error
}

// Resolve determines the dimensions of ref. Failures wrap one of ErrInvalidInput,
// ErrLoad, ErrInvalidDimensions or ErrTimeout, or the context's error when ctx
// ends first.
func (r *Resolver) Resolve(ctx context.Context, ref string, mediaType models.MediaType) (Dimensions, error) {
	if ref == "" {
		return Dimensions{}, fmt.Errorf("%w: empty reference", ErrInvalidInput)
	}
	prober, ok := r.probers[mediaType]
	if !mediaType.Valid() || !ok {
		return Dimensions{}, fmt.Errorf("%w: unsupported media type %q", ErrInvalidInput, mediaType)
	}

	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered so a probe finishing after we stop listening never blocks
	results := make(chan probeResult, 1)
	go func() {
		b, exists := r.source.Get(ref)
		if !exists {
			results <- probeResult{err: fmt.Errorf("%w: unknown reference %s", ErrLoad, ref)}
			return
		}
		dims, err := prober.Probe(probeCtx, b)
		if err != nil {
			results <- probeResult{err: fmt.Errorf("%w: %v", ErrLoad, err)}
			return
		}
		results <- probeResult{dims: dims}
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			r.record(mediaType, "load_error")
			return Dimensions{}, res.err
		}
		if res.dims.Width <= 0 || res.dims.Height <= 0 {
			r.record(mediaType, "invalid_dimensions")
			return Dimensions{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, res.dims.Width, res.dims.Height)
		}
		r.record(mediaType, "ok")
		return res.dims, nil
	case <-timer.C:
		r.record(mediaType, "timeout")
		return Dimensions{}, fmt.Errorf("%w: %s after %s", ErrTimeout, mediaType, r.timeout)
	case <-ctx.Done():
		r.record(mediaType, "canceled")
		return Dimensions{}, ctx.Err()
	}
}

func (r *Resolver) record(mediaType models.MediaType, outcome string) {
	metrics.DimensionResolutions.WithLabelValues(string(mediaType), outcome).Inc()
	if outcome != "ok" {
		slog.Debug("Dimension resolution failed", "media_type", mediaType, "outcome", outcome)
	}
}
