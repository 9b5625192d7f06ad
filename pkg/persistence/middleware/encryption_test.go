package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/persistence/middleware"
	"github.com/kanvas-io/kanvas/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretWorkspace(id string, value string) *domain.Workspace {
	ws := domain.NewWorkspace(id)
	ws.Name = "demo"
	ws.Graph.Nodes = []domain.Node{{
		ID: "n1",
		Data: domain.NodeData{
			Name:          "Credentials",
			ComponentType: domain.ComponentConfigSecret,
			OriginalType:  domain.SourceSecret,
			SecretData:    []domain.KeyValue{{ID: "0", Key: "password", Value: value}},
		},
	}}
	return ws
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	// Setup
	underlyingStore := NewMockStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	workspaceID := "test-workspace"
	original := secretWorkspace(workspaceID, "bXktc2VjcmV0LXNhdWNl")

	// 1. Save
	if err := secureStore.Save(ctx, workspaceID, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Verify Underlying Store directly (Should be encrypted)
	stored, err := underlyingStore.Load(ctx, workspaceID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored.Graph.Nodes) != 0 {
		t.Fatalf("Expected graph to be hidden, found %d nodes", len(stored.Graph.Nodes))
	}
	if stored.Sealed == "" || strings.Contains(stored.Sealed, "bXktc2VjcmV0LXNhdWNl") {
		t.Fatal("Expected an opaque sealed envelope")
	}
	if stored.Name != "demo" {
		t.Errorf("Expected bookkeeping to stay visible, got name %q", stored.Name)
	}

	// 3. Load via Middleware (Should be decrypted)
	loaded, err := secureStore.Load(ctx, workspaceID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Sealed != "" {
		t.Error("Expected decrypted workspace to drop the envelope")
	}
	if got := loaded.Graph.Nodes[0].Data.SecretData[0].Value; got != "bXktc2VjcmV0LXNhdWNl" {
		t.Errorf("Expected secret value to round trip, got %v", got)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	// Setup
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	secureStoreOld := mwOld(underlyingStore)

	ctx := context.Background()
	workspaceID := "rotation-workspace"

	// 1. Save with OLD key
	if err := secureStoreOld.Save(ctx, workspaceID, secretWorkspace(workspaceID, "b2xk")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Load with NEW key (Active) + OLD key (Fallback)
	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	secureStoreNew := mwNew(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, workspaceID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Graph.Nodes[0].Data.SecretData[0].Value != "b2xk" {
		t.Errorf("Decryption with fallback key failed")
	}

	// 3. Save again (Should now use the NEW key)
	loaded.Graph.Nodes[0].Data.SecretData[0].Value = "bmV3"
	if err := secureStoreNew.Save(ctx, workspaceID, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	// 4. Verify we CANNOT load with just OLD key anymore
	_, err = secureStoreOld.Load(ctx, workspaceID)
	if err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainWorkspace(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	_ = underlyingStore.Save(ctx, "plain", secretWorkspace("plain", "cGxhaW4="))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err == nil {
		t.Error("Expected unsealed workspace to be rejected")
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(NewMockStore())
	ports.RunWorkspaceStoreContract(t, secureStore)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("DecodeKey failed: %v", err)
	}
	if string(got) != string(key) {
		t.Error("DecodeKey returned a different key")
	}

	if _, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("Expected error for short key")
	}
	if _, err := middleware.DecodeKey("%%%"); err == nil {
		t.Error("Expected error for invalid base64")
	}
}
