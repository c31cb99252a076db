// Package device holds the purifier model and the scheduler-owned device cache.
//
// A Device is created from a cloud manifest Descriptor and keyed by serial.
// Its LAN address is resolved lazily and cached until a connection failure
// invalidates it.
//
// Thread Safety:
//   - Cache is NOT safe for concurrent use. It is owned by the polling loop,
//     which is the only goroutine that reads or mutates it.
package device
