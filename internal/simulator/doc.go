// Package simulator runs an in-process MQTT broker that behaves like the
// local broker of one or more purifiers.
//
// A simulated purifier authenticates its serial and password, records the
// protocol version each client used and answers REQUEST-CURRENT-STATE
// commands with a configurable ENVIRONMENTAL-CURRENT-SENSOR-DATA message.
// It backs the session and collector tests and can be pointed at by a
// collector during development.
package simulator
