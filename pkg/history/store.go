package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/wordrecall/internal/utils"
	"github.com/charmbracelet/log"
)

// Store loads and saves history records.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend at path. An empty backend is guessed
// from the file extension.
func Open(backend, path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}

	if backend == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			backend = BackendSQLite
		default:
			backend = BackendFile
		}
	}

	switch backend {
	case BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// FileStore keeps a history as a single msgpack snapshot file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file is
// created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file path.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the snapshot. A missing file is an empty history.
func (fs *FileStore) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("No history file at %s, starting empty", fs.path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history %s: %w", fs.path, err)
	}
	return DecodeRecords(data)
}

// Save replaces the snapshot file atomically.
func (fs *FileStore) Save(ctx context.Context, records []Record) error {
	data, err := EncodeRecords(records)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := utils.WriteFileAtomic(fs.path, data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	log.Debugf("Saved %d history records to %s", len(records), fs.path)
	return nil
}

// Close is a no-op for file stores.
func (fs *FileStore) Close() error {
	return nil
}
