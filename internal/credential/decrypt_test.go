package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sealRaw encrypts arbitrary bytes with the vendor key, padding included.
func sealRaw(t *testing.T, plain []byte) string {
	t.Helper()
	block, err := aes.NewCipher(vendorKey)
	require.NoError(t, err)
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, vendorIV).CryptBlocks(out, plain)
	return base64.StdEncoding.EncodeToString(out)
}

func TestVendorConstants(t *testing.T) {
	require.Len(t, vendorKey, 32)
	assert.Equal(t, byte(1), vendorKey[0])
	assert.Equal(t, byte(32), vendorKey[31])
	assert.Equal(t, make([]byte, 16), vendorIV)
}

func TestDecrypt_RoundTrip(t *testing.T) {
	creds, err := Decrypt(Encrypt("s3cr3t-hash=="))
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-hash==", creds.Password())
}

func TestDecrypt_ToleratesSurroundingWhitespace(t *testing.T) {
	creds, err := Decrypt("  " + Encrypt("pw") + "\n")
	require.NoError(t, err)
	assert.Equal(t, "pw", creds.Password())
}

func TestDecrypt_Errors(t *testing.T) {
	badPadding := bytes.Repeat([]byte{'a'}, 15)
	badPadding = append(badPadding, 0x05)

	tests := []struct {
		name string
		blob string
	}{
		{name: "empty", blob: ""},
		{name: "not base64", blob: "!!not-base64!!"},
		{name: "short block", blob: base64.StdEncoding.EncodeToString([]byte("short"))},
		{name: "bad padding", blob: sealRaw(t, badPadding)},
		{name: "not json", blob: sealRaw(t, append([]byte("not json at all"), 0x01))},
		{name: "missing password", blob: sealRaw(t, append([]byte(`{"serial":"x"}`), bytes.Repeat([]byte{0x02}, 2)...))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.blob)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCredential), "got %v", err)
		})
	}
}

func TestCredentials_Redacted(t *testing.T) {
	creds := Credentials{password: "hunter2"}

	assert.NotContains(t, fmt.Sprintf("%v", creds), "hunter2")
	assert.NotContains(t, fmt.Sprint(creds), "hunter2")

	var buf strings.Builder
	slog.New(slog.NewTextHandler(&buf, nil)).Info("session", "creds", creds)
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), redacted)
}
