package security

import (
	"encoding/base64"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("SIGNER_KEY_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))

	secret := "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	encrypted, err := EncryptString(secret)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if encrypted == secret {
		t.Fatal("ciphertext must differ from plaintext")
	}

	decrypted, err := DecryptString(encrypted)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != secret {
		t.Fatalf("round trip mismatch: %q", decrypted)
	}

	// each encryption uses a fresh nonce
	again, err := EncryptString(secret)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if again == encrypted {
		t.Fatal("two encryptions of the same value must differ")
	}
}

func TestDecryptRejectsTamperedValue(t *testing.T) {
	t.Setenv("SIGNER_KEY_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(make([]byte, 32)))

	encrypted, err := EncryptString("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	raw, _ := base64.StdEncoding.DecodeString(encrypted)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := DecryptString(tampered); err == nil {
		t.Fatal("tampered ciphertext must not decrypt")
	}
}

func TestDecryptRequiresKey(t *testing.T) {
	t.Setenv("SIGNER_KEY_ENCRYPTION_KEY", "")
	if _, err := DecryptString("whatever"); err == nil {
		t.Fatal("expected an error without a key")
	}
}
