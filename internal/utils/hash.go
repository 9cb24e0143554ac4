package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// Hasher provides keyed HMAC-SHA256 hashing of transport payloads.
// Each Hasher owns a pool of reusable hash instances configured with its key,
// so several keys can coexist in one process.
type Hasher struct {
	hashKey []byte
	pool    sync.Pool
}

// NewHasher returns a Hasher for hashKey. An empty key yields a disabled
// Hasher: Hex returns "" and Verify accepts everything.
//
// Example usage:
//
//	h := utils.NewHasher("my-secret-key")
//	signature := h.Hex(body)
func NewHasher(hashKey string) *Hasher {
	h := &Hasher{hashKey: []byte(hashKey)}
	h.pool.New = func() any {
		return hmac.New(sha256.New, h.hashKey)
	}
	return h
}

// Enabled reports whether the Hasher was configured with a key.
func (h *Hasher) Enabled() bool {
	return h != nil && len(h.hashKey) > 0
}

// Sum computes an HMAC-SHA256 signature over data using a hasher pulled
// from the pool.
//
// Behavior:
//   - Retrieves a hash.Hash instance from sync.Pool
//   - Resets it, writes the data, computes the sum
//   - Resets again and returns it to the pool
func (h *Hasher) Sum(data []byte) []byte {
	mac := h.pool.Get().(hash.Hash)
	mac.Reset()

	mac.Write(data)
	sum := mac.Sum(nil)

	mac.Reset()
	h.pool.Put(mac)

	return sum
}

// Hex returns the hex-encoded signature of data, or "" when the Hasher is
// disabled.
func (h *Hasher) Hex(data []byte) string {
	if !h.Enabled() {
		return ""
	}
	return hex.EncodeToString(h.Sum(data))
}

// Verify reports whether signature is the hex-encoded signature of data.
// A disabled Hasher accepts any signature.
func (h *Hasher) Verify(data []byte, signature string) bool {
	if !h.Enabled() {
		return true
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, h.Sum(data))
}
