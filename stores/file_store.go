package stores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
)

// FileStore implements KVStore on a directory of JSON files, one per key.
// Writes are atomic (temp file + rename). The directory is watched with
// fsnotify so that writes by another process surface on Changes; the
// store's own writes are suppressed from that channel.
type FileStore struct {
	dataDir string

	mu         sync.Mutex
	selfWrites map[string]time.Time

	watcher *fsnotify.Watcher
	changes chan string
	done    chan struct{}
}

// selfWriteWindow is how long after our own rename an event for the same
// key is still considered ours rather than an external writer's.
const selfWriteWindow = 500 * time.Millisecond

// NewFileStore creates a file store rooted at config.Connection.
func NewFileStore(config *StoreConfig) (*FileStore, error) {
	if config.Type != "file" {
		return nil, fmt.Errorf("invalid store type for file store: %s", config.Type)
	}

	s := &FileStore{
		dataDir:    config.Connection,
		selfWrites: make(map[string]time.Time),
		changes:    make(chan string, 16),
		done:       make(chan struct{}),
	}

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dataDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch data directory: %w", err)
	}
	s.watcher = watcher
	go s.watchLoop()

	return s, nil
}

// NewFileStoreSimple creates a file store with just a data directory.
func NewFileStoreSimple(dataDir string) (*FileStore, error) {
	return NewFileStore(NewStoreConfig("file", dataDir))
}

func (s *FileStore) keyPath(key string) string {
	return filepath.Join(s.dataDir, key+".json")
}

func (s *FileStore) Save(key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %q: %w", key, err)
	}

	path := s.keyPath(key)
	tempPath := path + ".tmp"

	s.mu.Lock()
	s.selfWrites[key] = time.Now()
	s.mu.Unlock()

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return os.Rename(tempPath, path)
}

func (s *FileStore) Load(key string, out interface{}) error {
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		logger.Errorf("Failed to read key %q: %v", key, err)
		return ErrNotFound
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Errorf("Corrupt record for key %q: %v", key, err)
		return ErrNotFound
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	s.selfWrites[key] = time.Now()
	s.mu.Unlock()

	if err := os.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) Changes() <-chan string {
	return s.changes
}

func (s *FileStore) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			key := strings.TrimSuffix(name, ".json")
			if s.isSelfWrite(key) {
				continue
			}
			select {
			case s.changes <- key:
			default:
				// Reconciliation is wholesale per key; a dropped
				// duplicate notification loses nothing.
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("Store watcher error: %v", err)
		}
	}
}

func (s *FileStore) isSelfWrite(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.selfWrites[key]
	if !ok {
		return false
	}
	if time.Since(at) > selfWriteWindow {
		delete(s.selfWrites, key)
		return false
	}
	return true
}

// Backup copies every record into a timestamped subdirectory.
func (s *FileStore) Backup() error {
	backupDir := filepath.Join(s.dataDir, "backup", fmt.Sprintf("backup_%d", time.Now().Unix()))
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dataDir, entry.Name()))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(backupDir, entry.Name()), data, 0644); err != nil {
			return err
		}
	}

	logger.Infof("Backup completed: %s", backupDir)
	return nil
}

func (s *FileStore) Ping() error {
	_, err := os.Stat(s.dataDir)
	return err
}

func (s *FileStore) Close() error {
	close(s.done)
	// changes is left open; the watch loop exits once the watcher closes
	// and receivers simply stop seeing events.
	return s.watcher.Close()
}
