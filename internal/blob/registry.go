// Package blob keeps uploaded and generated binary content addressable by an
// opaque "blob:<id>" reference, in the same way a browser's object URL
// registry does. Content lives here, not in the models that point at it.
package blob

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/framestitch/internal/id"
)

const Scheme = "blob:"

// Blob is registered content
type Blob struct {
	Ref         string
	Owner       string
	ContentType string
	Data        []byte
}

// Reader returns a fresh reader over the blob content
func (b *Blob) Reader() io.Reader {
	return bytes.NewReader(b.Data)
}

type Registry struct {
	blobs map[string]*Blob
	mu    sync.RWMutex
}

func New() *Registry {
	return &Registry{
		blobs: make(map[string]*Blob),
	}
}

// Create registers data and returns its reference. owner groups blobs so they
// can be released together, usually a session ID.
func (r *Registry) Create(owner string, data []byte, contentType string) string {
	ref := Scheme + id.New()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[ref] = &Blob{
		Ref:         ref,
		Owner:       owner,
		ContentType: contentType,
		Data:        data,
	}
	return ref
}

func (r *Registry) Get(ref string) (*Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, exists := r.blobs[ref]
	return b, exists
}

// Revoke releases a reference. Revoking an unknown reference is a no-op.
func (r *Registry) Revoke(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blobs, ref)
}

// RevokeOwner releases every blob registered by owner and returns how many
// were released.
func (r *Registry) RevokeOwner(owner string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for ref, b := range r.blobs {
		if b.Owner == owner {
			delete(r.blobs, ref)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// IsRef reports whether s looks like a blob reference
func IsRef(s string) bool {
	return strings.HasPrefix(s, Scheme) && len(s) > len(Scheme)
}
