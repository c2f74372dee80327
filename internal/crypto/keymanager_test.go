package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := DecryptKey(blob, "hunter2")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != testKeyHex {
		t.Fatalf("round trip = %q, want %q", got, testKeyHex)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := DecryptKey(blob, "wrong"); err == nil {
		t.Fatal("expected decryption failure with the wrong password")
	}
}

func TestEncryptRejectsBadKey(t *testing.T) {
	if _, err := EncryptKey("deadbeef", "pw"); err == nil {
		t.Fatal("expected an error for a short key")
	}
	if _, err := EncryptKey(testKeyHex, ""); err == nil {
		t.Fatal("expected an error for an empty password")
	}
}

func TestLoadKeyRawTakesPrecedence(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKeyHex})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != testKeyHex {
		t.Fatalf("key = %q, want 0x prefix stripped", got)
	}
}

func TestLoadKeyFromEncryptedFile(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "pw")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != testKeyHex {
		t.Fatalf("key = %q, want %q", got, testKeyHex)
	}
}

func TestLoadKeyNoSource(t *testing.T) {
	_, err := LoadKey(KeyConfig{})
	if err == nil || !strings.Contains(err.Error(), "no private key source") {
		t.Fatalf("err = %v", err)
	}
}
