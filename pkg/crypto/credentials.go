package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CredentialCipher encrypts portal passwords before they are stored on the
// user session row. Ciphertexts are base64 strings carrying the nonce as a
// prefix, so a single column holds everything needed to decrypt.
type CredentialCipher struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// NewCredentialCipher derives a cipher from arbitrary key material. The
// material is hashed to the exact key size, so operators may configure any
// sufficiently long secret.
func NewCredentialCipher(keyMaterial string) (*CredentialCipher, error) {
	if keyMaterial == "" {
		return nil, fmt.Errorf("credential encryption key is empty")
	}
	key := sha256.Sum256([]byte(keyMaterial))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("init credential cipher: %w", err)
	}
	return &CredentialCipher{aead: aead}, nil
}

// Encrypt seals a plaintext credential. Empty input stays empty so optional
// columns round-trip cleanly.
func (c *CredentialCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Tampered or truncated
// values return an error rather than garbage.
func (c *CredentialCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, sealed := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", err)
	}
	return string(plain), nil
}
