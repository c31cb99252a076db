// Package cloud talks to the vendor cloud: it logs in and fetches the
// manifest of registered purifiers together with their encrypted local
// credentials.
//
// Two login flows are supported:
//
//   - BasicAuthenticator exchanges e-mail and password for an account/password
//     pair sent as HTTP Basic auth. Older accounts only.
//   - OTPAuthenticator runs the e-mail one-time-password flow and caches the
//     resulting bearer token in the secret store.
//
// The OTP flow needs a human in the loop. The first login requests a
// challenge, stores its id and fails with ErrAuthPending. The operator then
// writes the e-mailed code to the secret store under cloud.otp_code; the
// next pass verifies it and stores the token.
//
// Error policy:
//   - ErrCloudUnavailable: transport failure or unexpected status, retry next pass
//   - ErrAuthPending: waiting for an OTP, retry next pass
//   - ErrAccountInactive: needs human action, surfaced as an error every pass
//   - ErrUnauthorized: the cached token was refused, call Invalidate
package cloud
