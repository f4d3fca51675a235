// Package id generates short identifiers for sessions, media items, canvas
// items and blobs.
package id

import (
	"crypto/rand"
	"math/big"

	"github.com/lithammer/shortuuid/v4"
)

// New returns a process-unique short UUID
func New() string {
	return shortuuid.New()
}

const shortAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Short returns an n character base36 identifier. It is not guaranteed unique
// and is only meant for human-facing references such as feedback receipts.
func Short(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(shortAlphabet)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		out[i] = shortAlphabet[v.Int64()]
	}
	return string(out)
}
