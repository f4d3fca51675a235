// Package stitch talks to the external panorama stitching service.
package stitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
	"github.com/lehigh-university-libraries/framestitch/internal/metrics"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

// DefaultMessage is reported when the service fails without explaining why
const DefaultMessage = "Failed to stitch images"

var ErrNoImages = errors.New("no canvas items to stitch")

// Error is a failure reported by the stitching service
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Source looks up canvas item content
type Source interface {
	Get(ref string) (*blob.Blob, bool)
}

// Tracker receives analytics events
type Tracker interface {
	Track(category, action, name string)
}

type Client struct {
	http    *resty.Client
	baseURL string
	blobs   Source
}

// NewClient creates a client for the service rooted at baseURL
func NewClient(baseURL string, blobs Source, timeout time.Duration) *Client {
	return &Client{
		http:    resty.New().SetTimeout(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		blobs:   blobs,
	}
}

// Stitch uploads the canvas images in order and returns the composite image
// bytes with their content type. Service failures are returned as *Error.
func (c *Client) Stitch(ctx context.Context, items []models.CanvasItem, tracker Tracker) ([]byte, string, error) {
	if len(items) == 0 {
		return nil, "", ErrNoImages
	}
	tracker.Track("Processing", "stitch_start", fmt.Sprintf("image_count_%d", len(items)))

	req := c.http.R().SetContext(ctx)
	for _, item := range items {
		b, ok := c.blobs.Get(item.BlobURL)
		if !ok {
			return nil, "", fmt.Errorf("failed to fetch image: %s", item.BlobURL)
		}
		req.SetMultipartField("images", fileName(item), b.ContentType, b.Reader())
	}

	start := time.Now()
	resp, err := req.Post(c.baseURL + "/stitchPanorama")
	metrics.StitchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("Stitching failed", "err", err)
		metrics.StitchRequests.WithLabelValues("transport_error").Inc()
		tracker.Track("Processing", "stitch_error", err.Error())
		return nil, "", fmt.Errorf("failed to reach stitching service: %w", err)
	}

	if !resp.IsSuccess() {
		serviceErr := &Error{Status: resp.StatusCode(), Message: errorMessage(resp.Body())}
		slog.Error("Stitching failed", "status", serviceErr.Status, "message", serviceErr.Message)
		metrics.StitchRequests.WithLabelValues("service_error").Inc()
		tracker.Track("Processing", "stitch_error", serviceErr.Message)
		return nil, "", serviceErr
	}

	metrics.StitchRequests.WithLabelValues("ok").Inc()
	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return resp.Body(), contentType, nil
}

func fileName(item models.CanvasItem) string {
	if item.SourceID != "" {
		return item.SourceID + ".png"
	}
	return item.ID + ".png"
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return DefaultMessage
	}
	return payload.Message
}
