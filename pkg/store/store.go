// Package store persists stub definitions.
//
// The store is a plain CRUD collaborator: it knows nothing about compiled
// rules and never normalizes the JSON text it holds. Two backends exist: an
// in-memory map (InMemoryStore) and a JSON file on disk (package file).
//
// The default data directory follows the XDG Base Directory Specification:
// $XDG_DATA_HOME/stubd, falling back to ~/.local/share/stubd.
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/getmockd/stubd/pkg/stub"
)

// Common errors
var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
	ErrClosed    = errors.New("store is closed")
)

// Backend represents a storage backend type.
type Backend string

const (
	// BackendMemory keeps stubs in memory only.
	BackendMemory Backend = "memory"
	// BackendFile persists stubs to a JSON file.
	BackendFile Backend = "file"
)

// Config holds store configuration.
type Config struct {
	Backend Backend `json:"backend" yaml:"backend"`

	// DataDir is where the file backend keeps stubs.json.
	DataDir string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`
}

// DefaultDataDir returns the default data directory following XDG spec.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "stubd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".stubd", "data")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "stubd")
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "stubd")
		}
		return filepath.Join(home, "AppData", "Local", "stubd")
	default:
		return filepath.Join(home, ".local", "share", "stubd")
	}
}

// Filter narrows List results.
type Filter struct {
	// Name matches the stub name exactly.
	Name string

	// Enabled filters by enabled flag.
	Enabled *bool
}

// Matches reports whether def satisfies the filter. A nil filter matches
// everything.
func (f *Filter) Matches(def *stub.Definition) bool {
	if f == nil {
		return true
	}
	if f.Name != "" && def.Name != f.Name {
		return false
	}
	if f.Enabled != nil && def.Enabled != *f.Enabled {
		return false
	}
	return true
}

// StubStore persists stub definitions.
//
// Implementations store copies: callers may keep modifying a Definition
// after Put without affecting the stored record, and records returned by Get
// and List are the caller's to modify.
type StubStore interface {
	// Get returns the stub with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*stub.Definition, error)

	// Put creates or replaces a stub. An empty def.ID is assigned before
	// saving; CreatedAt and UpdatedAt are maintained.
	Put(ctx context.Context, def *stub.Definition) error

	// Delete removes a stub, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns stubs ordered by creation time.
	List(ctx context.Context, filter *Filter) ([]*stub.Definition, error)
}
