package store

import "context"

// Slot is a key-addressed durable record store, the server-side stand-in for
// browser local storage. Each key holds one serialized record.
type Slot interface {
	// Load returns the record under key and whether it exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)

	// Save replaces the record under key.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes the record; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
