package cloud

import "errors"

var (
	// ErrCloudUnavailable is returned for transport failures and unexpected responses.
	ErrCloudUnavailable = errors.New("cloud: unavailable")

	// ErrUnauthorized is returned alongside ErrCloudUnavailable for HTTP 401.
	ErrUnauthorized = errors.New("cloud: unauthorized")

	// ErrAuthPending is returned while an OTP challenge awaits its code.
	ErrAuthPending = errors.New("cloud: authentication pending one-time password")

	// ErrAccountInactive is returned when the account is not ACTIVE.
	ErrAccountInactive = errors.New("cloud: account inactive")

	// ErrMissingAccount is returned when the secret store has no username or password.
	ErrMissingAccount = errors.New("cloud: account credentials not in secret store")
)
