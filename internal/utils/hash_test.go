// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"testing"

	"github.com/MKhiriev/repcue-sync/models"
)

const testHashKey = "test-secret-key"

func TestHasher_Sum(t *testing.T) {
	h := NewHasher(testHashKey)

	data := []byte("test-data")

	sum1 := h.Sum(data)
	sum2 := h.Sum(data)

	if len(sum1) == 0 {
		t.Fatal("hash result is empty")
	}

	if !bytes.Equal(sum1, sum2) {
		t.Fatal("hash must be deterministic for the same input")
	}

	// verify against direct HMAC computation
	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write(data)
	expected := mac.Sum(nil)

	if !bytes.Equal(sum1, expected) {
		t.Fatalf("unexpected hash value\nwant: %x\ngot:  %x", expected, sum1)
	}
}

func TestHasher_WithSyncRequest(t *testing.T) {
	h := NewHasher(testHashKey)

	req := models.SyncRequest{
		Tables: map[string]models.TableChanges{
			models.TableExercises: {Deletes: []string{"a"}},
		},
		ClientInfo: models.ClientInfo{AppVersion: "1.0.0", DeviceID: "dev-1"},
	}

	// Сериализуем запрос в JSON (как это делает транспорт)
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	got := h.Hex(body)

	// Эталонный хеш считаем напрямую через crypto/hmac
	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("Hash mismatch:\n  got:  %s\n  want: %s", got, want)
	}
	if !h.Verify(body, got) {
		t.Error("Verify must accept its own signature")
	}
}

// TestHasher_DifferentKeys проверяет что разные ключи дают разные хеши и не мешают друг другу
func TestHasher_DifferentKeys(t *testing.T) {
	data := []byte(`{"tables":{}}`)

	h1 := NewHasher("key-one")
	h2 := NewHasher("key-two")

	if h1.Hex(data) == h2.Hex(data) {
		t.Error("different keys must produce different hashes")
	}
	if h2.Verify(data, h1.Hex(data)) {
		t.Error("signature of another key must be rejected")
	}
}

func TestHasher_Disabled(t *testing.T) {
	h := NewHasher("")

	if h.Enabled() {
		t.Fatal("empty key must disable hasher")
	}
	if got := h.Hex([]byte("x")); got != "" {
		t.Errorf("expected empty signature, got %q", got)
	}
	if !h.Verify([]byte("x"), "anything") {
		t.Error("disabled hasher must accept any signature")
	}

	var nilHasher *Hasher
	if nilHasher.Enabled() {
		t.Error("nil hasher must be disabled")
	}
}

func TestHasher_Verify_BadHex(t *testing.T) {
	h := NewHasher(testHashKey)
	if h.Verify([]byte("x"), "zz-not-hex") {
		t.Error("malformed signature must be rejected")
	}
}

func TestHasher_Concurrent(t *testing.T) {
	h := NewHasher(testHashKey)
	want := h.Hex([]byte("payload"))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := h.Hex([]byte("payload")); got != want {
				t.Errorf("concurrent hash mismatch: %s != %s", got, want)
			}
		}()
	}
	wg.Wait()
}
