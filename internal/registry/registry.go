// Package registry keeps the side table of which drive folders have been
// indexed, by what name, and when. The vector store only knows collection
// names; this file is the mapping users actually see.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type FileRecord struct {
	SourceId string `json:"source_id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Tabular  bool   `json:"is_tabular"`
	Chunks   int    `json:"chunks"`
}

type Entry struct {
	FolderId  string       `json:"folder_id"`
	Name      string       `json:"name"`
	IndexedAt time.Time    `json:"indexed_at"`
	Files     []FileRecord `json:"files"`
}

type Registry struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

// Load reads the registry file, or starts empty when it does not exist yet.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, entries: make(map[string]Entry)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	for _, e := range entries {
		r.entries[e.FolderId] = e
	}
	return r, nil
}

func (r *Registry) Get(folderId string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[folderId]
	return entry, ok
}

func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Put records or replaces a folder's entry and persists immediately.
func (r *Registry) Put(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.FolderId] = entry
	return r.persist()
}

func (r *Registry) Delete(folderId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, folderId)
	return r.persist()
}

func (r *Registry) snapshot() []Entry {
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].FolderId < entries[j].FolderId })
	return entries
}

// persist writes to a temp file then renames, so a crash mid-write never
// leaves a truncated registry behind. Callers hold the mutex.
func (r *Registry) persist() error {
	raw, err := json.MarshalIndent(r.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".registry-*")
	if err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}
