// Package session runs one request/response round trip against a purifier's
// local MQTT broker.
//
// A round trip is an explicit, linear state machine:
//
//	Connecting -> Connected -> AwaitingData -> Closing -> Closed
//
// with Error reachable from every non-terminal state. Every path ends in
// Closed and every opened connection is closed exactly once, whether the
// device answered, stayed silent past the response timeout or failed.
package session
