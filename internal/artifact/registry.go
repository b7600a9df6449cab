package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Registry loads artifacts from <dir>/<Name>.json on a filesystem.
//
// Loaded artifacts are cached; the registry is safe for concurrent use.
type Registry struct {
	fs  afero.Fs
	dir string

	mu    sync.Mutex
	cache map[string]*Artifact
}

// NewRegistry creates a [Registry] rooted at dir.
func NewRegistry(fsys afero.Fs, dir string) *Registry {
	return &Registry{fs: fsys, dir: dir, cache: make(map[string]*Artifact)}
}

// Dir returns the artifacts directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Load returns the artifact for a contract name.
//
// Returns an error wrapping [ErrArtifactNotFound] if the file does not exist.
func (r *Registry) Load(name string) (*Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.cache[name]; ok {
		return a, nil
	}

	path := filepath.Join(r.dir, name+".json")
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (looked in %s)", ErrArtifactNotFound, name, path)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}

	a, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	r.cache[name] = a
	return a, nil
}

// Has reports whether an artifact file exists for name.
func (r *Registry) Has(name string) bool {
	ok, err := afero.Exists(r.fs, filepath.Join(r.dir, name+".json"))
	return err == nil && ok
}

// Names lists the contract names available in the directory, sorted.
func (r *Registry) Names() ([]string, error) {
	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// MockSource is an in-memory [Source] for tests and dry runs.
type MockSource struct {
	Artifacts map[string]*Artifact

	// Loaded records every name passed to Load, in order.
	Loaded []string
}

// Load returns the artifact registered under name.
func (m *MockSource) Load(name string) (*Artifact, error) {
	m.Loaded = append(m.Loaded, name)
	a, ok := m.Artifacts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	return a, nil
}
