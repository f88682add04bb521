package cipher

import (
	stdcipher "crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Poly1305Cipher implements Cipher with IETF ChaCha20-Poly1305, an
// alternative to AESCipher for environments without AES hardware
// acceleration. Wire layout matches AESCipher: nonce[12] || tag[16] ||
// ciphertext[n].
type ChaCha20Poly1305Cipher struct {
	name string
	aead stdcipher.AEAD
}

// ChaCha20Poly1305 returns a ChaCha20-Poly1305 Cipher named name. key must
// be exactly 32 bytes.
func ChaCha20Poly1305(name string, key []byte) (*ChaCha20Poly1305Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidKey, chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &ChaCha20Poly1305Cipher{name: name, aead: aead}, nil
}

func (c *ChaCha20Poly1305Cipher) Name() string { return c.name }

func (c *ChaCha20Poly1305Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	body, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, len(nonce)+len(tag)+len(body))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, body...)
	return out, nil
}

func (c *ChaCha20Poly1305Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize+tagSize {
		return nil, ErrMalformedCiphertext
	}

	nonce := ciphertext[:nonceSize]
	tag := ciphertext[nonceSize : nonceSize+tagSize]
	body := ciphertext[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(body)+len(tag))
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return plaintext, nil
}
