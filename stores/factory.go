package stores

import (
	"fmt"
)

// NewStore creates a new persistent store based on the configuration
func NewStore(config *StoreConfig) (KVStore, error) {
	switch config.Type {
	case "file":
		return NewFileStore(config)
	case "sqlite":
		return NewSQLiteStore(config)
	case "postgres":
		return NewPostgresStore(config)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// NewFileStoreDefault creates a file store under ./data
func NewFileStoreDefault() (KVStore, error) {
	return NewFileStoreSimple("./data")
}

// NewSQLiteStoreDefault creates a SQLite store with default settings
func NewSQLiteStoreDefault() (KVStore, error) {
	return NewSQLiteStoreSimple("maddi.sqlite")
}
