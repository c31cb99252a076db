package device

import "errors"

// ErrUnreachable marks a device that could not be located or connected to
// during this pass. It isolates the failure to the device and requests an
// accelerated re-pass.
var ErrUnreachable = errors.New("device: unreachable")
