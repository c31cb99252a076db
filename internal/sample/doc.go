// Package sample defines the persisted SensorSample, the Writer and Reader
// contracts over a time-series store and the backends that implement them:
// SQLite, TimescaleDB, InfluxDB v2 and DynamoDB.
//
// The collector writes through a Recorder, which turns every store failure
// into a log line and a dropped sample so that one device's failure never
// blocks another's.
package sample
