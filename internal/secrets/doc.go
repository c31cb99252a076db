// Package secrets provides the key-value secret store the collector reads
// cloud credentials, cached auth state and static device addresses from.
//
// Backends:
//   - FileStore: a YAML document on disk, optionally age-encrypted
//   - NATSStore: a JetStream key-value bucket shared with other hosts
//   - MemoryStore: process-local, for tests and dry runs
//
// Well-known keys:
//
//	cloud.username        account e-mail
//	cloud.password        account password
//	cloud.token           cached bearer token (OTP flow)
//	cloud.challenge_id    outstanding OTP challenge
//	cloud.otp_code        OTP entered by the operator
//	device_ip.<serial>    static LAN address for a device
//
// The collector never logs values read from a Store.
package secrets
