// Package security protects the signer key at rest with a symmetric
// secretbox envelope. The encryption key comes from the environment and is
// never written to disk.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errBadKey = errors.New("encryption key must be 32 bytes base64")

func loadKey() (*[32]byte, error) {
	encoded := GetConfig().SignerKeyKey
	if encoded == "" {
		return nil, errors.New("SIGNER_KEY_ENCRYPTION_KEY is not set")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != 32 {
		return nil, errBadKey
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// EncryptString seals a secret and returns base64(nonce || ciphertext).
func EncryptString(plaintext string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a value produced by EncryptString.
func DecryptString(encrypted string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("malformed encrypted value: %w", err)
	}
	if len(raw) < nonceSize {
		return "", errors.New("encrypted value too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, key)
	if !ok {
		return "", errors.New("decryption failed")
	}
	return string(plaintext), nil
}
