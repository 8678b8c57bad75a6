package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const encodingVersion = "v1"

func keyFromSecret(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// EncryptText seals plain with AES-256-GCM under a key derived from secret.
// The output is a self-describing opaque string,
// "v1:<nonce>:<tag>:<ciphertext>" with standard-base64 parts, so it can be
// stored in a single text column. A fresh random nonce is used per call.
func EncryptText(secret, plain string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("missing encryption secret")
	}
	block, err := aes.NewCipher(keyFromSecret(secret))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plain), nil)
	ct := sealed[:len(sealed)-gcm.Overhead()]
	tag := sealed[len(sealed)-gcm.Overhead():]

	enc := base64.StdEncoding.EncodeToString
	return strings.Join([]string{encodingVersion, enc(nonce), enc(tag), enc(ct)}, ":"), nil
}

// DecryptText reverses EncryptText. It fails on unknown versions, malformed
// encodings, and authentication failures alike.
func DecryptText(secret, encoded string) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 4 || parts[0] != encodingVersion {
		return "", fmt.Errorf("unrecognized ciphertext encoding")
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("decode tag: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(keyFromSecret(secret))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("bad nonce length %d", len(nonce))
	}
	plain, err := gcm.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}
