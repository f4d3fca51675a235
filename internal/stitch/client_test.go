package stitch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

type recordingTracker struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingTracker) Track(category, action, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action+":"+name)
}

type uploadedFile struct {
	field, name, body string
}

func TestStitchSendsImagesInOrder(t *testing.T) {
	var got []uploadedFile
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stitchPanorama" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		mr, err := r.MultipartReader()
		if err != nil {
			t.Fatalf("Expected multipart body: %v", err)
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Failed to read part: %v", err)
			}
			data, _ := io.ReadAll(part)
			got = append(got, uploadedFile{part.FormName(), part.FileName(), string(data)})
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("composite"))
	}))
	defer srv.Close()

	reg := blob.New()
	first := reg.Create("s", []byte("one"), "image/png")
	second := reg.Create("s", []byte("two"), "image/png")
	items := []models.CanvasItem{
		{ID: "c1", SourceID: "m1", BlobURL: first},
		{ID: "c2", BlobURL: second},
	}

	tracker := &recordingTracker{}
	c := NewClient(srv.URL+"/", reg, 5*time.Second)
	data, contentType, err := c.Stitch(context.Background(), items, tracker)
	if err != nil {
		t.Fatalf("Stitch failed: %v", err)
	}
	if string(data) != "composite" || contentType != "image/jpeg" {
		t.Errorf("Unexpected result %q (%s)", data, contentType)
	}

	want := []uploadedFile{{"images", "m1.png", "one"}, {"images", "c2.png", "two"}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d parts, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Part %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if len(tracker.actions) != 1 || tracker.actions[0] != "stitch_start:image_count_2" {
		t.Errorf("Unexpected tracked actions %v", tracker.actions)
	}
}

func TestStitchServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"json message", `{"message":"Not enough overlap"}`, http.StatusUnprocessableEntity, "Not enough overlap"},
		{"json without message", `{"error":"x"}`, http.StatusInternalServerError, DefaultMessage},
		{"plain text", "boom", http.StatusBadGateway, DefaultMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			reg := blob.New()
			ref := reg.Create("s", []byte("one"), "image/png")
			tracker := &recordingTracker{}

			c := NewClient(srv.URL, reg, 5*time.Second)
			_, _, err := c.Stitch(context.Background(), []models.CanvasItem{{ID: "c1", BlobURL: ref}}, tracker)

			var serviceErr *Error
			if !errors.As(err, &serviceErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if serviceErr.Status != tt.status || serviceErr.Message != tt.message {
				t.Errorf("Expected %d %q, got %d %q", tt.status, tt.message, serviceErr.Status, serviceErr.Message)
			}
			if len(tracker.actions) != 2 || tracker.actions[1] != "stitch_error:"+tt.message {
				t.Errorf("Unexpected tracked actions %v", tracker.actions)
			}
		})
	}
}

func TestStitchMissingBlob(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", blob.New(), time.Second)
	_, _, err := c.Stitch(context.Background(), []models.CanvasItem{{ID: "c1", BlobURL: "blob:gone"}}, &recordingTracker{})
	if err == nil {
		t.Error("Expected error for missing blob")
	}
}

func TestStitchNoImages(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", blob.New(), time.Second)
	if _, _, err := c.Stitch(context.Background(), nil, &recordingTracker{}); !errors.Is(err, ErrNoImages) {
		t.Errorf("Expected ErrNoImages, got %v", err)
	}
}
