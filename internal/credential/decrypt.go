package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// vendorKey is bytes 1..32. vendorIV is all zeroes.
var (
	vendorKey = func() []byte {
		k := make([]byte, 32)
		for i := range k {
			k[i] = byte(i + 1)
		}
		return k
	}()
	vendorIV = make([]byte, aes.BlockSize)
)

const redacted = "[REDACTED]"

// Credentials holds a decrypted device password for the lifetime of one
// session. It redacts itself when printed or logged.
type Credentials struct {
	password string
}

// Password returns the broker password.
func (c Credentials) Password() string { return c.password }

// String implements fmt.Stringer.
func (c Credentials) String() string { return redacted }

// LogValue implements slog.LogValuer.
func (c Credentials) LogValue() slog.Value { return slog.StringValue(redacted) }

// localCredentials is the decrypted JSON document.
type localCredentials struct {
	PasswordHash string `json:"apPasswordHash"`
}

// Decrypt decodes a base64 LocalCredentials blob and extracts the broker password.
//
// Parameters:
//   - blob: base64 ciphertext from the cloud manifest
//
// Returns:
//   - Credentials: the decrypted password wrapper
//   - error: wraps ErrCredential on any decoding failure
func Decrypt(blob string) (Credentials, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blob))
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: base64: %w", ErrCredential, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return Credentials{}, fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d",
			ErrCredential, len(ciphertext), aes.BlockSize)
	}

	block, err := aes.NewCipher(vendorKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrCredential, err)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, vendorIV).CryptBlocks(plain, ciphertext)

	plain, err = unpad(plain)
	if err != nil {
		return Credentials{}, err
	}

	var doc localCredentials
	if err := json.Unmarshal(plain, &doc); err != nil {
		return Credentials{}, fmt.Errorf("%w: json: %w", ErrCredential, err)
	}
	if doc.PasswordHash == "" {
		return Credentials{}, fmt.Errorf("%w: apPasswordHash missing", ErrCredential)
	}

	return Credentials{password: doc.PasswordHash}, nil
}

// unpad strips PKCS#7 padding.
func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrCredential)
	}
	if !bytes.Equal(b[len(b)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, fmt.Errorf("%w: bad padding", ErrCredential)
	}
	return b[:len(b)-n], nil
}
