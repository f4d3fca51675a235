package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photos/frame.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("pixels"))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher()
	img, err := f.Fetch(context.Background(), srv.URL+"/photos/frame.png")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(img.Data) != "pixels" || img.ContentType != "image/png" || img.Filename != "frame.png" {
		t.Errorf("Unexpected image %+v", img)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("Expected error for 404")
	}

	f.MaxBytes = 16
	if _, err := f.Fetch(context.Background(), srv.URL+"/big"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestFetchRejectsInvalidURLs(t *testing.T) {
	f := NewFetcher()
	for _, u := range []string{"", "file:///etc/passwd", "ftp://example.org/a.png", "http://", "::nope"} {
		if _, err := f.Fetch(context.Background(), u); err == nil {
			t.Errorf("Expected error for %q", u)
		}
	}
}

func TestFilenameFor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	img, err := NewFetcher().Fetch(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if img.Filename != "image" {
		t.Errorf("Expected fallback filename, got %q", img.Filename)
	}
}
