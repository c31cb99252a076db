package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// defaultMeasurement is used when the configuration leaves it empty.
const defaultMeasurement = "purifier"

// WritePoint writes one point and waits for the server to accept it.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//   - timestamp: The time of the measurement
//
// Returns:
//   - error: wraps ErrNotConnected or ErrWriteFailed
//
// Example:
//
//	err := client.WritePoint(ctx,
//	    map[string]string{"serial": "NK6-EU-MHA0000A", "location": "Bedroom"},
//	    map[string]any{"air_quality": 2, "temperature": 20.1},
//	    time.Now())
func (c *Client) WritePoint(ctx context.Context, tags map[string]string, fields map[string]any, timestamp time.Time) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(c.Measurement(), tags, fields, timestamp)
	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
