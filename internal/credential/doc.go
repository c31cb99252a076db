// Package credential decrypts the local broker password that the vendor
// cloud delivers, encrypted, inside each device's manifest entry.
//
// The cipher is AES-256-CBC with a fixed key and a zero IV defined by the
// device firmware. They are protocol constants, not secrets, and must not
// be rotated or moved into configuration.
//
// Usage:
//
//	creds, err := credential.Decrypt(dev.LocalCredentials)
//	if err != nil {
//	    // skip this device only
//	}
//	conn, err := dialer.Dial(ctx, addr, dev.Serial, creds.Password())
package credential
