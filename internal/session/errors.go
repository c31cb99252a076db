package session

import "errors"

var (
	// ErrNoData is returned when no sensor message arrives before the
	// response timeout.
	ErrNoData = errors.New("session: no sensor data received")

	// ErrProtocol is returned when subscribing or publishing the state
	// request fails on an established connection.
	ErrProtocol = errors.New("session: protocol failure")
)
