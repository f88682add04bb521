package cipher

import (
	"bytes"
	"errors"
	"testing"
)

func TestAES_RoundTrip(t *testing.T) {
	key := []byte("32-byte-key-for-aes-256-encrypt!")
	c, err := AES("aes256", key)
	if err != nil {
		t.Fatalf("AES() error: %v", err)
	}

	plaintext := []byte("hello, world!")
	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	if bytes.Equal(plaintext, ciphertext) {
		t.Error("ciphertext should differ from plaintext")
	}

	decrypted, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Errorf("round-trip failed: got %q, want %q", decrypted, plaintext)
	}
}

func TestAES_InvalidKeySize(t *testing.T) {
	_, err := AES("aes256", []byte("short"))
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestAES_DifferentNonce(t *testing.T) {
	key := []byte("32-byte-key-for-aes-256-encrypt!")
	c, _ := AES("aes256", key)

	plaintext := []byte("hello")
	c1, _ := c.Encrypt(plaintext)
	c2, _ := c.Encrypt(plaintext)

	if bytes.Equal(c1, c2) {
		t.Error("same plaintext should produce different ciphertext (random nonce)")
	}
}

// TestAES_TamperDetection truncates ciphertext at several offsets and
// confirms every truncation is rejected rather than silently returning
// garbage plaintext.
func TestAES_TamperDetection(t *testing.T) {
	key := []byte("32-byte-key-for-aes-256-encrypt!")
	c, _ := AES("aes256", key)

	ciphertext, err := c.Encrypt([]byte("a reasonably long plaintext payload for truncation testing"))
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	for _, n := range []int{10, 20, 30} {
		if n > len(ciphertext) {
			continue
		}
		truncated := ciphertext[:n]
		if _, err := c.Decrypt(truncated); err == nil {
			t.Errorf("Decrypt(truncated to %d bytes) succeeded, want error", n)
		}
	}
}

// TestAES_WireLayout confirms the on-wire byte order is
// nonce[12] || tag[16] || ciphertext[n], independent of crypto/cipher's
// own Seal/Open convention (ciphertext || tag).
func TestAES_WireLayout(t *testing.T) {
	key := []byte("32-byte-key-for-aes-256-encrypt!")
	c, _ := AES("aes256", key)

	plaintext := []byte("some text")
	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	const nonceSize = 12
	if len(ciphertext) != nonceSize+tagSize+len(plaintext) {
		t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), nonceSize+tagSize+len(plaintext))
	}

	if _, err := c.Decrypt(ciphertext[:10]); err != ErrMalformedCiphertext {
		t.Errorf("Decrypt(ct[:10]) = %v, want ErrMalformedCiphertext", err)
	}
	if _, err := c.Decrypt(ciphertext[:20]); err != ErrMalformedCiphertext {
		t.Errorf("Decrypt(ct[:20]) = %v, want ErrMalformedCiphertext", err)
	}
	if _, err := c.Decrypt(ciphertext[:30]); !errors.Is(err, ErrAuthentication) {
		t.Errorf("Decrypt(ct[:30]) = %v, want ErrAuthentication", err)
	}
}

func TestAES_WrongKeyFails(t *testing.T) {
	c1, _ := AES("aes256", []byte("32-byte-key-for-aes-256-encrypt!"))
	c2, _ := AES("aes256", []byte("a-different-32-byte-key-entirely"))

	ciphertext, err := c1.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if _, err := c2.Decrypt(ciphertext); !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication decrypting with wrong key, got %v", err)
	}
}

func TestChaCha20Poly1305_RoundTrip(t *testing.T) {
	key := []byte("32-byte-key-for-chacha20-poly!!!")
	c, err := ChaCha20Poly1305("chacha", key)
	if err != nil {
		t.Fatalf("ChaCha20Poly1305() error: %v", err)
	}

	plaintext := []byte("hello, world!")
	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	decrypted, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Errorf("round-trip failed: got %q, want %q", decrypted, plaintext)
	}
}

func TestChaCha20Poly1305_InvalidKeySize(t *testing.T) {
	_, err := ChaCha20Poly1305("chacha", []byte("short"))
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestChaCha20Poly1305_TamperDetection(t *testing.T) {
	key := []byte("32-byte-key-for-chacha20-poly!!!")
	c, _ := ChaCha20Poly1305("chacha", key)

	ciphertext, err := c.Encrypt([]byte("a reasonably long plaintext payload for truncation testing"))
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	for _, n := range []int{10, 20, 30} {
		truncated := ciphertext[:n]
		if _, err := c.Decrypt(truncated); err == nil {
			t.Errorf("Decrypt(truncated to %d bytes) succeeded, want error", n)
		}
	}
}
