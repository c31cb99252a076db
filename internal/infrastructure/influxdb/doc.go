// Package influxdb provides InfluxDB v2 connectivity for the influxdb
// storage backend.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, health monitoring and one-point-at-a-time sample writes.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.WritePoint(ctx, tags, fields, sampledAt)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Writes are blocking, so every failure is returned to the caller wrapped
// in ErrWriteFailed. Nothing is buffered or retried in the background.
package influxdb
