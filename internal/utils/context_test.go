// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"
)

func TestContextKeyString(t *testing.T) {
	key := contextKey("testKey")
	if key.String() != "testKey" {
		t.Errorf("expected 'testKey', got '%s'", key.String())
	}
}

func TestOwnerIDCtxKey(t *testing.T) {
	if OwnerIDCtxKey.String() != "ownerID" {
		t.Errorf("expected 'ownerID', got '%s'", OwnerIDCtxKey.String())
	}
}

func TestGetOwnerIDFromContext_Success(t *testing.T) {
	ctx := context.WithValue(context.Background(), OwnerIDCtxKey, "user-42")

	ownerID, ok := GetOwnerIDFromContext(ctx)

	if !ok {
		t.Fatal("expected ok=true, got false")
	}
	if ownerID != "user-42" {
		t.Errorf("expected 'user-42', got '%s'", ownerID)
	}
}

func TestGetOwnerIDFromContext_Missing(t *testing.T) {
	_, ok := GetOwnerIDFromContext(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
}

func TestGetOwnerIDFromContext_WrongType(t *testing.T) {
	// int64 из старого формата не должен приниматься
	ctx := context.WithValue(context.Background(), OwnerIDCtxKey, int64(42))

	if _, ok := GetOwnerIDFromContext(ctx); ok {
		t.Fatal("expected ok=false for wrong type")
	}
}

func TestGetOwnerIDFromContext_Empty(t *testing.T) {
	ctx := context.WithValue(context.Background(), OwnerIDCtxKey, "")

	if _, ok := GetOwnerIDFromContext(ctx); ok {
		t.Fatal("expected ok=false for empty owner")
	}
}

func TestGetDeviceIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), DeviceIDCtxKey, "dev-1")

	deviceID, ok := GetDeviceIDFromContext(ctx)
	if !ok || deviceID != "dev-1" {
		t.Fatalf("expected dev-1, got %q (ok=%v)", deviceID, ok)
	}
}
