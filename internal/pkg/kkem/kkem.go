// Package kkem decodes the account-linking payload sent by the KKEM
// partner platform: a base64 AES-256-ECB blob whose key is derived with
// PBKDF2-HMAC-SHA256 and whose plaintext is a URL query string.
package kkem

import (
	"bytes"
	"crypto/aes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations matches the partner's key derivation
	DefaultIterations = 65536
	keyLength         = 32
)

// Params holds the shared secret agreed with the partner
type Params struct {
	SecretKey  string
	Salt       string
	Iterations int
}

// Cipher decrypts and encrypts payloads with a key derived once
type Cipher struct {
	key []byte
}

// New derives the AES key from p
func New(p Params) *Cipher {
	iterations := p.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Cipher{
		key: pbkdf2.Key([]byte(p.SecretKey), []byte(p.Salt), iterations, keyLength, sha256.New),
	}
}

// Decrypt returns the query values carried by payload
func (c *Cipher) Decrypt(payload string) (url.Values, error) {
	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrKKEMPayloadInvalid, err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", apperrors.ErrKKEMPayloadInvalid, len(raw), aes.BlockSize)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plain := make([]byte, len(raw))
	for start := 0; start < len(raw); start += aes.BlockSize {
		block.Decrypt(plain[start:start+aes.BlockSize], raw[start:start+aes.BlockSize])
	}

	plain, err = unpad(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrKKEMPayloadInvalid, err)
	}

	values, err := url.ParseQuery(string(plain))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrKKEMPayloadInvalid, err)
	}
	return values, nil
}

// Encrypt is the inverse of Decrypt
func (c *Cipher) Encrypt(values url.Values) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	plain := pad([]byte(values.Encode()))
	out := make([]byte, len(plain))
	for start := 0; start < len(plain); start += aes.BlockSize {
		block.Encrypt(out[start:start+aes.BlockSize], plain[start:start+aes.BlockSize])
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
// A '+' that arrived through a query string as a space is restored.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "+")

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("bad padding length %d", n)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return b[:len(b)-n], nil
}
