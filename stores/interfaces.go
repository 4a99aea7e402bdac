package stores

import "errors"

// ErrNotFound is the absence signal: the key was never saved, or the stored
// value could not be deserialized.
var ErrNotFound = errors.New("record not found")

// KVStore is the durable key-value store holding the serialized session
// collection, the active-session pointer, and user settings. Operations are
// synchronous and must never panic past their boundary; failures are logged
// and reported as ErrNotFound (loads) or a plain error (saves) which callers
// may swallow, keeping in-memory state authoritative.
type KVStore interface {
	// Save serializes value under key, replacing any previous value.
	Save(key string, value interface{}) error

	// Load deserializes the last saved value for key into out.
	// Returns ErrNotFound when no usable value exists.
	Load(key string, out interface{}) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Changes reports keys rewritten out-of-band by another process.
	// Returns nil when the backend has no external-change notifier.
	Changes() <-chan string

	// Backup copies the current state aside. Backends without a
	// meaningful backup are a no-op.
	Backup() error

	// Health check
	Ping() error

	// Connection management
	Close() error
}

// StoreConfig holds configuration for persistent stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "file", "sqlite", "postgres"
	Connection string            `json:"connection"` // data dir or connection string
	Options    map[string]string `json:"options"`    // additional options
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}
