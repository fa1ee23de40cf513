// Package seed loads stubs from YAML files at startup.
//
// A seed file looks like:
//
//	stubs:
//	  - name: list users
//	    request:
//	      method: GET
//	      urlPath: /users
//	    response:
//	      status: 200
//	      body: {users: []}
//	    priority: 1
//
// request, response and metadata take any YAML value; a string is stored as
// given, which is how double-encoded specs are reproduced.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/stubd/pkg/jsonvalue"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/stub"
)

// File is the layout of a seed file.
type File struct {
	Stubs []Entry `yaml:"stubs"`
}

// Entry is one stub of a seed file.
type Entry struct {
	Name                  string `yaml:"name"`
	Request               any    `yaml:"request,omitempty"`
	Response              any    `yaml:"response,omitempty"`
	Priority              *int   `yaml:"priority,omitempty"`
	ScenarioName          string `yaml:"scenarioName,omitempty"`
	RequiredScenarioState string `yaml:"requiredScenarioState,omitempty"`
	NewScenarioState      string `yaml:"newScenarioState,omitempty"`
	Persistent            *bool  `yaml:"persistent,omitempty"`
	Enabled               *bool  `yaml:"enabled,omitempty"`
	Metadata              any    `yaml:"metadata,omitempty"`
}

// Payload converts the entry into a create payload.
func (e *Entry) Payload() (*stub.Request, error) {
	if strings.TrimSpace(e.Name) == "" {
		return nil, errors.New("name is required")
	}
	req := &stub.Request{
		Name:                  e.Name,
		Priority:              e.Priority,
		ScenarioName:          e.ScenarioName,
		RequiredScenarioState: e.RequiredScenarioState,
		NewScenarioState:      e.NewScenarioState,
		Persistent:            e.Persistent,
		Enabled:               e.Enabled,
	}
	var err error
	if req.Request, err = rawJSON(e.Request); err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	if req.Response, err = rawJSON(e.Response); err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}
	if req.Metadata, err = rawJSON(e.Metadata); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return req, nil
}

// rawJSON encodes a decoded YAML value as canonical JSON.
func rawJSON(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	val, err := jsonvalue.From(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(val.Canonical()), nil
}

// Parse decodes seed file content.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses a single seed file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Load reads every seed file matching pattern and returns their entries in
// file name order. Patterns support ** for recursive matching. A pattern
// without glob characters must name an existing file.
func Load(pattern string) ([]Entry, error) {
	if !hasGlobMeta(pattern) {
		f, err := LoadFile(pattern)
		if err != nil {
			return nil, err
		}
		return f.Stubs, nil
	}

	matches, err := doublestar.FilepathGlob(filepath.Clean(pattern))
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}
	sort.Strings(matches)

	var entries []Entry
	for _, match := range matches {
		f, err := LoadFile(match)
		if err != nil {
			return nil, err
		}
		entries = append(entries, f.Stubs...)
	}
	return entries, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// Creator is the part of the stub service the seeder needs.
type Creator interface {
	Create(ctx context.Context, req *stub.Request) (stub.View, error)
	List(ctx context.Context) ([]stub.View, error)
}

// Result summarizes a seeding run.
type Result struct {
	Created int
	Skipped int
	Failed  int
}

// Apply creates every entry whose name is not already taken by a stored
// stub. Entries that fail are counted and their errors joined; the rest are
// still applied. A stub whose spec does not compile is stored anyway and
// counts as failed.
func Apply(ctx context.Context, svc Creator, entries []Entry, log *slog.Logger) (Result, error) {
	if log == nil {
		log = logging.Nop()
	}
	var res Result

	existing, err := svc.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list stubs: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, v := range existing {
		taken[v.Name] = true
	}

	var errs []error
	for i := range entries {
		entry := &entries[i]
		if taken[entry.Name] {
			log.Debug("seed stub already present", "name", entry.Name)
			res.Skipped++
			continue
		}

		req, err := entry.Payload()
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("seed entry %d (%q): %w", i, entry.Name, err))
			continue
		}
		if _, err := svc.Create(ctx, req); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("seed stub %q: %w", entry.Name, err))
			taken[entry.Name] = true
			continue
		}
		taken[entry.Name] = true
		res.Created++
	}

	log.Info("seed applied", "created", res.Created, "skipped", res.Skipped, "failed", res.Failed)
	return res, errors.Join(errs...)
}
