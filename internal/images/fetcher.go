package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultMaxBytes bounds a single remote download
const DefaultMaxBytes = 50 << 20

var ErrTooLarge = errors.New("remote image exceeds size limit")

// Fetcher retrieves images from remote URLs for import into a session
type Fetcher struct {
	MaxBytes int64
	http     *resty.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		MaxBytes: DefaultMaxBytes,
		http:     resty.New().SetTimeout(30 * time.Second),
	}
}

// Image is a downloaded remote file
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Fetch downloads rawURL. Only http and https URLs are accepted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid image URL: %q", rawURL)
	}

	slog.Info("Fetching remote image", "url", u.String())
	resp, err := f.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode())
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	return &Image{
		Data:        data,
		ContentType: resp.Header().Get("Content-Type"),
		Filename:    filenameFor(u),
	}, nil
}

func filenameFor(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
