package stores

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
)

// Record is one serialized key-value row.
type Record struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// SQLiteStore implements KVStore for SQLite databases
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(config *StoreConfig) (*SQLiteStore, error) {
	if config.Type != "sqlite" {
		return nil, fmt.Errorf("invalid store type for SQLite store: %s", config.Type)
	}

	store := &SQLiteStore{
		path: config.Connection,
	}

	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	return store, nil
}

// NewSQLiteStoreSimple creates a new SQLite store with just a file path
func NewSQLiteStoreSimple(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStore(NewStoreConfig("sqlite", dbPath))
}

// Connect establishes a connection to the SQLite database
func (s *SQLiteStore) Connect() error {
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	s.db = db

	// Auto-migrate the schema
	if err := s.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Save(key string, value interface{}) error {
	return saveRecord(s.db, key, value)
}

func (s *SQLiteStore) Load(key string, out interface{}) error {
	return loadRecord(s.db, key, out)
}

func (s *SQLiteStore) Delete(key string) error {
	return deleteRecord(s.db, key)
}

// Changes returns nil: SQLite has no cross-process change notifier here.
func (s *SQLiteStore) Changes() <-chan string { return nil }

// Backup is a no-op; the database file is the durable artifact.
func (s *SQLiteStore) Backup() error { return nil }

// Ping checks if the database connection is alive
func (s *SQLiteStore) Ping() error {
	return pingDB(s.db)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return closeDB(s.db)
}

func saveRecord(db *gorm.DB, key string, value interface{}) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	data, err := json.Marshal(value)
	if err != nil {
		logger.Errorf("Failed to marshal value for key %q: %v", key, err)
		return fmt.Errorf("failed to marshal value for key %q: %w", key, err)
	}

	rec := Record{Key: key, Value: string(data)}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func loadRecord(db *gorm.DB, key string, out interface{}) error {
	if db == nil {
		return ErrNotFound
	}

	var rec Record
	if err := db.Where("key = ?", key).First(&rec).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Errorf("Failed to load key %q: %v", key, err)
		}
		return ErrNotFound
	}
	if err := json.Unmarshal([]byte(rec.Value), out); err != nil {
		logger.Errorf("Corrupt record for key %q: %v", key, err)
		return ErrNotFound
	}
	return nil
}

func deleteRecord(db *gorm.DB, key string) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.Where("key = ?", key).Delete(&Record{}).Error
}

func pingDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func closeDB(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
