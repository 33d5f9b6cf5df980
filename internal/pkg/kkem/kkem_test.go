package kkem

import (
	"crypto/aes"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher() *Cipher {
	// A low iteration count keeps the tests fast
	return New(Params{SecretKey: "partner-secret", Salt: "partner-salt", Iterations: 1000})
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := testCipher()
	values := url.Values{"jsid": {"JS1234"}, "dwms_id": {"DW-99"}}

	payload, err := c.Encrypt(values)
	require.NoError(t, err)

	got, err := c.Decrypt(payload)
	require.NoError(t, err)
	assert.Equal(t, "JS1234", got.Get("jsid"))
	assert.Equal(t, "DW-99", got.Get("dwms_id"))
}

func TestDecrypt_AcceptsURLSafeAndSpaceMangledPayloads(t *testing.T) {
	c := testCipher()
	payload, err := c.Encrypt(url.Values{"jsid": {"abc"}})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	urlSafe := base64.RawURLEncoding.EncodeToString(raw)
	got, err := c.Decrypt(urlSafe)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Get("jsid"))

	mangled := strings.ReplaceAll(payload, "+", " ")
	got, err = c.Decrypt(mangled)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Get("jsid"))
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	payload, err := testCipher().Encrypt(url.Values{"jsid": {"abc"}})
	require.NoError(t, err)

	other := New(Params{SecretKey: "other", Salt: "partner-salt", Iterations: 1000})
	_, err = other.Decrypt(payload)
	// A wrong key almost always breaks the padding; when it does not the
	// plaintext is still garbage and must not carry our jsid.
	if err == nil {
		values, _ := other.Decrypt(payload)
		assert.NotEqual(t, "abc", values.Get("jsid"))
		return
	}
	assert.ErrorIs(t, err, apperrors.ErrKKEMPayloadInvalid)
}

func TestDecrypt_InvalidInput(t *testing.T) {
	c := testCipher()
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not base64", "%%%not-base64%%%"},
		{"short block", base64.StdEncoding.EncodeToString([]byte("tooshort"))},
		{"two and a half blocks", base64.StdEncoding.EncodeToString(make([]byte, aes.BlockSize*2+8))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.payload)
			assert.ErrorIs(t, err, apperrors.ErrKKEMPayloadInvalid)
		})
	}
}

func TestUnpad(t *testing.T) {
	_, err := unpad([]byte{1, 2, 3, 0})
	assert.Error(t, err)

	_, err = unpad([]byte{1, 2, 3, 3})
	assert.Error(t, err)

	out, err := unpad([]byte{'a', 'b', 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), out)
}
