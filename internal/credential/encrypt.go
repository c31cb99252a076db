package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
)

// Encrypt produces a LocalCredentials blob for password, matching what the
// cloud manifest serves. Used by device simulators and test fixtures.
func Encrypt(password string) string {
	plain, _ := json.Marshal(localCredentials{PasswordHash: password})

	n := aes.BlockSize - len(plain)%aes.BlockSize
	plain = append(plain, bytes.Repeat([]byte{byte(n)}, n)...)

	block, _ := aes.NewCipher(vendorKey)
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, vendorIV).CryptBlocks(out, plain)

	return base64.StdEncoding.EncodeToString(out)
}
