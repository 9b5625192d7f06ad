package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kanvas-io/kanvas/pkg/domain"
	"github.com/kanvas-io/kanvas/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.WorkspaceStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the workspace graph
// using AES-GCM (Envelope Encryption). Secret bundles never reach the
// underlying store in clear text.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.WorkspaceStore) ports.WorkspaceStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, workspaceID string, ws *domain.Workspace) error {
	// 1. Serialize the real graph
	plainText, err := json.Marshal(ws.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	// 2. Encrypt
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt graph: %w", err)
	}

	// 3. Create envelope
	// Bookkeeping stays visible for listing; the graph is opaque.
	envelope := &domain.Workspace{
		ID:        ws.ID,
		Name:      ws.Name,
		UpdatedAt: ws.UpdatedAt,
		Sealed:    base64.StdEncoding.EncodeToString(ciphertext),
	}

	return m.next.Save(ctx, workspaceID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	// 1. Load envelope
	envelope, err := m.next.Load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	// 2. Extract ciphertext
	if envelope.Sealed == "" {
		// Fail secure: a configured key means every workspace is expected sealed.
		return nil, errors.New("workspace is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// 3. Decrypt (Try Active, then Fallback)
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt workspace: %w", err)
	}

	// 4. Deserialize
	var graph domain.Graph
	if err := json.Unmarshal(plainText, &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted graph: %w", err)
	}

	return &domain.Workspace{
		ID:        envelope.ID,
		Name:      envelope.Name,
		UpdatedAt: envelope.UpdatedAt,
		Graph:     graph,
	}, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, workspaceID string) error {
	return m.next.Delete(ctx, workspaceID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}

// DecodeKey parses a base64 encoded AES-256 key as found in configuration.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid encryption key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}
