package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStore keeps secrets in a JetStream key-value bucket.
type NATSStore struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// NATSOptions configures NewNATSStore.
type NATSOptions struct {
	URL       string
	Bucket    string
	CredsFile string
	Timeout   time.Duration
}

// NewNATSStore connects to NATS and opens (or creates) the bucket.
func NewNATSStore(ctx context.Context, opts NATSOptions) (*NATSStore, error) {
	natsOpts := []nats.Option{nats.Name("purifier-collector")}
	if opts.CredsFile != "" {
		natsOpts = append(natsOpts, nats.UserCredentials(opts.CredsFile))
	}
	if opts.Timeout > 0 {
		natsOpts = append(natsOpts, nats.Timeout(opts.Timeout))
	}

	nc, err := nats.Connect(opts.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to NATS: %w", ErrBackend, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: creating JetStream context: %w", ErrBackend, err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      opts.Bucket,
		Description: "purifier collector secrets",
		History:     1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: opening KV bucket %s: %w", ErrBackend, opts.Bucket, err)
	}

	return &NATSStore{nc: nc, kv: kv}, nil
}

func (n *NATSStore) Get(ctx context.Context, key string) (string, error) {
	entry, err := n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %w", ErrBackend, key, err)
	}
	return string(entry.Value()), nil
}

func (n *NATSStore) Put(ctx context.Context, key, value string) error {
	if _, err := n.kv.PutString(ctx, key, value); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrBackend, key, err)
	}
	return nil
}

func (n *NATSStore) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("%w: delete %s: %w", ErrBackend, key, err)
	}
	return nil
}

// Close drains the NATS connection.
func (n *NATSStore) Close() error {
	if n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}
