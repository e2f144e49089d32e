package store

import (
	"bytes"
	"testing"
)

var testKDF = KDFParams{Iterations: 1000}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := make([]byte, SaltLen)
	for i := range salt {
		salt[i] = byte(i)
	}

	key1 := DeriveKey([]byte("Correct-Horse-12"), salt, testKDF)
	key2 := DeriveKey([]byte("Correct-Horse-12"), salt, testKDF)

	if !bytes.Equal(key1, key2) {
		t.Error("same password and salt should produce same key")
	}
	if len(key1) != KeyLen {
		t.Errorf("expected key length %d, got %d", KeyLen, len(key1))
	}
}

func TestDeriveKeySaltSensitive(t *testing.T) {
	salt1, _ := GenerateSalt()
	salt2, _ := GenerateSalt()

	key1 := DeriveKey([]byte("password123"), salt1, testKDF)
	key2 := DeriveKey([]byte("password123"), salt2, testKDF)

	if bytes.Equal(key1, key2) {
		t.Error("different salts should produce different keys")
	}
}

func TestDeriveKeyPasswordSensitive(t *testing.T) {
	salt, _ := GenerateSalt()

	key1 := DeriveKey([]byte("password123"), salt, testKDF)
	key2 := DeriveKey([]byte("password124"), salt, testKDF)

	if bytes.Equal(key1, key2) {
		t.Error("different passwords should produce different keys")
	}
}

func TestGenerateSalt(t *testing.T) {
	s1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}
	s2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}

	if len(s1) != SaltLen {
		t.Errorf("expected salt length %d, got %d", SaltLen, len(s1))
	}
	if bytes.Equal(s1, s2) {
		t.Error("salts should be unique")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, _ := RandomBytes(KeyLen)

	for _, plaintext := range []string{
		"Hello, World!",
		"",
		"ünïcödé 秘密 🔐",
		string([]byte{0x00, 0x01, 0x02, 0xFF, 0xFE, 0xFD}),
	} {
		blob, err := Seal(key, []byte(plaintext))
		if err != nil {
			t.Fatalf("failed to seal: %v", err)
		}

		got, err := Open(key, blob)
		if err != nil {
			t.Fatalf("failed to open: %v", err)
		}
		if string(got) != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestSealFreshNonce(t *testing.T) {
	key, _ := RandomBytes(KeyLen)

	blob1, err := Seal(key, []byte("same plaintext"))
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}
	blob2, err := Seal(key, []byte("same plaintext"))
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}

	if bytes.Equal(blob1[:NonceLen], blob2[:NonceLen]) {
		t.Error("nonce must be fresh on every seal")
	}
	if bytes.Equal(blob1, blob2) {
		t.Error("ciphertexts with fresh nonces must differ")
	}
}

func TestOpenWrongKey(t *testing.T) {
	key1, _ := RandomBytes(KeyLen)
	key2, _ := RandomBytes(KeyLen)

	blob, err := Seal(key1, []byte("secret"))
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}

	if _, err := Open(key2, blob); err == nil {
		t.Error("expected error opening with wrong key")
	}
}

func TestOpenTamperedAnyBit(t *testing.T) {
	key, _ := RandomBytes(KeyLen)

	blob, err := Seal(key, []byte("tamper target"))
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}

	// Flip one bit at every byte position, nonce included.
	for i := range blob {
		tampered := make([]byte, len(blob))
		copy(tampered, blob)
		tampered[i] ^= 0x01

		if _, err := Open(key, tampered); err == nil {
			t.Fatalf("bit flip at byte %d went undetected", i)
		}
	}
}

func TestOpenTruncated(t *testing.T) {
	key, _ := RandomBytes(KeyLen)

	if _, err := Open(key, []byte("short")); err == nil {
		t.Error("expected error for blob shorter than a nonce")
	}
}

func TestLargePayload(t *testing.T) {
	key, _ := RandomBytes(KeyLen)

	plaintext := make([]byte, 1024*1024)
	for i := range plaintext {
		plaintext[i] = byte(i % 256)
	}

	blob, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("failed to seal large payload: %v", err)
	}
	got, err := Open(key, blob)
	if err != nil {
		t.Fatalf("failed to open large payload: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("large payload round trip mismatch")
	}
}
