// Package file provides a file-backed StubStore. Stubs are kept in memory and
// written to <DataDir>/stubs.json after every change.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/store"
	"github.com/getmockd/stubd/pkg/stub"
)

// Current data format version for migration support
const dataVersion = 1

// DataFile is the name of the file stubs are saved to.
const DataFile = "stubs.json"

// storeData is the on-disk layout.
type storeData struct {
	Version int                `json:"version"`
	Stubs   []*stub.Definition `json:"stubs"`
}

// FileStore implements store.StubStore on top of an in-memory store,
// persisting the full set to disk on each write.
type FileStore struct {
	cfg    store.Config
	mu     sync.Mutex // serializes writes and saves
	mem    *store.InMemoryStore
	closed bool
	log    *slog.Logger
}

// New creates a FileStore. Call Open before use.
func New(cfg store.Config, log *slog.Logger) *FileStore {
	if cfg.DataDir == "" {
		cfg.DataDir = store.DefaultDataDir()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &FileStore{
		cfg: cfg,
		mem: store.NewInMemoryStore(),
		log: logging.Component(log, "store"),
	}
}

// Path returns the data file location.
func (s *FileStore) Path() string {
	return filepath.Join(s.cfg.DataDir, DataFile)
}

// Open creates the data directory and loads any saved stubs.
func (s *FileStore) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			s.mem.Replace(nil)
			return nil
		}
		return fmt.Errorf("read %s: %w", s.Path(), err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse %s: %w", s.Path(), err)
	}
	if stored.Version > dataVersion {
		return fmt.Errorf("%s: unsupported data version %d", s.Path(), stored.Version)
	}

	s.mem.Replace(stored.Stubs)
	s.log.Info("loaded stubs", "path", s.Path(), "count", len(stored.Stubs))
	return nil
}

// Close rejects further writes. Data is already on disk.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Get returns the stub with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (*stub.Definition, error) {
	return s.mem.Get(ctx, id)
}

// List returns stubs ordered by creation time.
func (s *FileStore) List(ctx context.Context, filter *store.Filter) ([]*stub.Definition, error) {
	return s.mem.List(ctx, filter)
}

// Put stores def and saves the data file.
func (s *FileStore) Put(ctx context.Context, def *stub.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if err := s.mem.Put(ctx, def); err != nil {
		return err
	}
	return s.save(ctx)
}

// Delete removes a stub and saves the data file.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if err := s.mem.Delete(ctx, id); err != nil {
		return err
	}
	return s.save(ctx)
}

// save writes all stubs atomically. Caller must hold s.mu.
func (s *FileStore) save(ctx context.Context) error {
	stubs, err := s.mem.List(ctx, nil)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(&storeData{Version: dataVersion, Stubs: stubs}, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	dataFile := s.Path()
	tmpFile := dataFile + ".tmp"

	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("save stubs: %w", err)
	}
	if err := os.Rename(tmpFile, dataFile); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("save stubs: %w", err)
	}

	s.log.Debug("saved stubs", "path", dataFile, "count", len(stubs))
	return nil
}

var _ store.StubStore = (*FileStore)(nil)
