// Package locator resolves purifier LAN addresses and caches them in the
// scheduler's device cache.
//
// A device whose address is cached is returned without any network call.
// Otherwise exactly one bounded-time Discoverer lookup is made. A failed
// lookup leaves the device unresolved for this pass.
//
// Discoverers:
//   - StaticDiscoverer: addresses pinned in the secret store (device_ip.<serial>)
//   - ServiceDiscoverer: an HTTP discovery service, GET {base}/resolve/{serial}
//   - MDNSDiscoverer: multicast DNS query for <serial>.local
//   - ChainDiscoverer: tries several in order, first answer wins
package locator
