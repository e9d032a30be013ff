// Package registry maintains the JSON-backed catalog of developer
// resources (ports, databases, simulators) shared between the scanner,
// the TUI, and manual claims.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Kind classifies a registry resource.
type Kind string

const (
	KindPort      Kind = "port"
	KindDatabase  Kind = "database"
	KindSimulator Kind = "simulator"
)

// Resource is one named entry in the registry file.
type Resource struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Value     string    `json:"value"`
	Owner     string    `json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
}

// registryFile is the on-disk shape.
type registryFile struct {
	Resources map[string]Resource `json:"resources"`
}

// Registry is the in-memory view of the resource file. The file stays
// human-editable: before every operation the mtime is checked and
// external edits are reloaded.
type Registry struct {
	mu        sync.Mutex
	path      string
	log       *slog.Logger
	resources map[string]Resource
	loadedAt  time.Time
}

// DefaultPath returns the standard registry file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "resources.json"
	}
	return filepath.Join(home, ".config", "claude-buddy", "resources.json")
}

// New opens the registry at path, loading any existing file. A missing
// file yields an empty registry; a malformed file is backed up to .bak
// and replaced on the next write.
func New(path string, log *slog.Logger) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	r := &Registry{
		path:      path,
		log:       log,
		resources: make(map[string]Resource),
	}
	if err := r.loadLocked(); err != nil {
		return nil, err
	}
	return r, nil
}

// Claim records a resource under name, overwriting any previous owner.
func (r *Registry) Claim(name string, kind Kind, value, owner string) error {
	if name == "" {
		return errors.New("resource name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeReloadLocked()

	r.resources[name] = Resource{
		Name:      name,
		Kind:      kind,
		Value:     value,
		Owner:     owner,
		UpdatedAt: time.Now().UTC(),
	}
	return r.writeLocked()
}

// Release removes the named resource. Releasing an absent name is a
// no-op.
func (r *Registry) Release(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeReloadLocked()

	if _, ok := r.resources[name]; !ok {
		return nil
	}
	delete(r.resources, name)
	return r.writeLocked()
}

// Get returns the named resource.
func (r *Registry) Get(name string) (Resource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeReloadLocked()

	res, ok := r.resources[name]
	return res, ok
}

// List returns all resources sorted by name.
func (r *Registry) List() []Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeReloadLocked()

	out := make([]Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SyncOwned replaces every resource held by owner with the given set.
// The scanner uses this to mirror its latest snapshot: stale entries
// from a previous scan disappear, manual claims by other owners stay.
func (r *Registry) SyncOwned(owner string, resources []Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeReloadLocked()

	for name, res := range r.resources {
		if res.Owner == owner {
			delete(r.resources, name)
		}
	}
	now := time.Now().UTC()
	for _, res := range resources {
		if res.Name == "" {
			continue
		}
		res.Owner = owner
		res.UpdatedAt = now
		r.resources[res.Name] = res
	}
	return r.writeLocked()
}

// maybeReloadLocked re-reads the file if it changed on disk since the
// last load. Failures keep the current in-memory view.
func (r *Registry) maybeReloadLocked() {
	info, err := os.Stat(r.path)
	if err != nil {
		return
	}
	if !info.ModTime().After(r.loadedAt) {
		return
	}
	if err := r.loadLocked(); err != nil && r.log != nil {
		r.log.Warn("registry_reload_failed", slog.String("error", err.Error()))
	}
}

func (r *Registry) loadLocked() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.resources = make(map[string]Resource)
			return nil
		}
		return fmt.Errorf("reading registry file: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		bakPath := r.path + ".bak"
		if bakErr := os.WriteFile(bakPath, data, 0644); bakErr != nil {
			return fmt.Errorf("registry file contains invalid JSON and backup failed: %w", bakErr)
		}
		if r.log != nil {
			r.log.Warn("registry_malformed",
				slog.String("path", r.path),
				slog.String("backup", bakPath))
		}
		r.resources = make(map[string]Resource)
	} else {
		if file.Resources == nil {
			file.Resources = make(map[string]Resource)
		}
		r.resources = file.Resources
	}

	if info, err := os.Stat(r.path); err == nil {
		r.loadedAt = info.ModTime()
	}
	return nil
}

// writeLocked persists the current state atomically via temp file +
// rename so a crash mid-write never corrupts the registry.
func (r *Registry) writeLocked() error {
	data, err := json.MarshalIndent(registryFile{Resources: r.resources}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	tmpFile, err := os.CreateTemp(dir, ".resources-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", r.path, err)
	}
	tmpPath = ""

	if info, err := os.Stat(r.path); err == nil {
		r.loadedAt = info.ModTime()
	}
	return nil
}
