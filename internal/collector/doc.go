// Package collector drives the polling loop: authenticate, fetch the
// device manifest, resolve addresses, run one session per device and record
// the samples.
//
// Devices are processed one at a time and the device cache is owned by the
// Scheduler, so nothing in a pass runs concurrently. A pass that leaves any
// device unresolved or failed is retried early with exponential backoff, up
// to a configured number of consecutive attempts, before the scheduler falls
// back to the normal interval.
package collector
