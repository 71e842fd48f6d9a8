package library

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
)

// Tree is a named operation tree held by the library.
type Tree struct {
	// Name identifies the tree.
	Name string `json:"name"`

	// Description is optional free text from the document envelope.
	Description string `json:"description,omitempty"`

	// Source is the file the tree was loaded from.
	Source string `json:"source,omitempty"`

	// Root is the operation tree.
	Root ast.Node `json:"-"`

	// Warnings are non-blocking diagnostics from decoding and validation.
	Warnings []*diag.Diagnostic `json:"warnings,omitempty"`
}

// Registry is a thread-safe in-memory set of trees. Updates replace the
// whole set at once.
type Registry struct {
	mu       sync.RWMutex
	trees    map[string]*Tree
	version  string
	loadTime time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		trees:    make(map[string]*Tree),
		loadTime: time.Now(),
	}
}

// Replace atomically swaps the entire tree set. Names must be non-empty and
// unique; on any violation the registry is left untouched.
func (r *Registry) Replace(trees []*Tree) error {
	next := make(map[string]*Tree, len(trees))
	for _, t := range trees {
		if t == nil || t.Root == nil {
			return &RegistryError{Operation: "replace", Message: "tree cannot be nil"}
		}
		if t.Name == "" {
			return &RegistryError{Operation: "replace", Message: "tree name cannot be empty"}
		}
		if prev, dup := next[t.Name]; dup {
			return &RegistryError{
				Tree:      t.Name,
				Operation: "replace",
				Message:   "duplicate name in " + prev.Source + " and " + t.Source,
			}
		}
		next[t.Name] = t
	}

	version := computeVersion(next)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.trees = next
	r.version = version
	r.loadTime = time.Now()
	return nil
}

// Get returns the tree with the given name.
func (r *Registry) Get(name string) (*Tree, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trees[name]
	return t, ok
}

// All returns every tree sorted by name.
func (r *Registry) All() []*Tree {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trees := make([]*Tree, 0, len(r.trees))
	for _, t := range r.trees {
		trees = append(trees, t)
	}
	sort.Slice(trees, func(i, j int) bool { return trees[i].Name < trees[j].Name })
	return trees
}

// Names returns the sorted tree names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.trees))
	for name := range r.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of trees.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.trees)
}

// Version returns a content hash of the current set. Identical sets loaded
// at different times share a version.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.version
}

// LoadTime returns when the set was last replaced.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loadTime
}

func computeVersion(trees map[string]*Tree) string {
	if len(trees) == 0 {
		return ""
	}

	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		// Map keys are emitted in sorted order, so equal trees hash equally.
		data, err := json.Marshal(ast.ToMap(trees[name].Root))
		if err == nil {
			h.Write(data)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
