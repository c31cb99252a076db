package credential

import "errors"

// ErrCredential is returned when a credentials blob cannot be decoded,
// decrypted, unpadded or parsed. It never aborts a pass; callers skip the device.
var ErrCredential = errors.New("credential: invalid local credentials")
