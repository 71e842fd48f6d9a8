package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/opgraph/pkg/config"
)

const (
	adultTree = `{
  "name": "adult",
  "description": "age is at least 18",
  "tree": {
    "tag": "IsAtLeast", "datatype": "Number",
    "operand": {"tag": "FromLocal", "datatype": "Number", "key": "age"},
    "test": {"tag": "Constant", "datatype": "Number", "value": 18}
  }
}`

	totalTree = `tag: Sum
datatype: Number
operands:
  - {tag: Constant, datatype: Number, value: 1}
  - {tag: Constant, datatype: Number, value: 2}
`

	invalidTree = `{"tag": "Constant", "datatype": "Integer", "value": 2.5}`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

type reloadCall struct {
	source string
	ok     bool
	trees  int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []reloadCall
}

func (f *fakeRecorder) RecordReload(source string, ok bool, trees int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reloadCall{source, ok, trees})
}

func (f *fakeRecorder) last() reloadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "adult.json", adultTree)
	writeFile(t, dir, "nested/total.yaml", totalTree)
	writeFile(t, dir, "bad.json", invalidTree)
	writeFile(t, dir, "README.md", "not a tree")
	writeFile(t, dir, ".hidden/skip.json", invalidTree)

	t.Run("lenient skips invalid documents", func(t *testing.T) {
		res, err := NewLoader(nil, nil, false, nil).Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(res.Trees) != 2 || res.Trees[0].Name != "adult" || res.Trees[1].Name != "total" {
			t.Fatalf("trees = %v", treeNames(res.Trees))
		}
		if res.Trees[0].Description != "age is at least 18" {
			t.Errorf("description = %q", res.Trees[0].Description)
		}
		if len(res.Skipped) != 1 || !strings.HasSuffix(res.Skipped[0].FilePath, "bad.json") {
			t.Errorf("skipped = %v", res.Skipped)
		}
	})

	t.Run("strict fails on any invalid document", func(t *testing.T) {
		_, err := NewLoader(nil, nil, true, nil).Load(dir)
		var list *ErrorList
		if !errors.As(err, &list) || len(list.Errors) != 1 {
			t.Fatalf("Load() error = %v, want ErrorList of 1", err)
		}
		var le *LoadError
		if !errors.As(err, &le) || le.Message != "validation failed" {
			t.Errorf("LoadError = %v", le)
		}
	})

	t.Run("single file", func(t *testing.T) {
		res, err := NewLoader(nil, nil, true, nil).Load(filepath.Join(dir, "adult.json"))
		if err != nil || len(res.Trees) != 1 {
			t.Fatalf("Load() = %v, %v", res, err)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := NewLoader(nil, nil, false, nil).Load(filepath.Join(dir, "nope"))
		var le *LoadError
		if !errors.As(err, &le) || le.Message != "path not found" {
			t.Errorf("Load() error = %v", err)
		}
	})
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", adultTree)
	b := writeFile(t, dir, "sub/b.yml", totalTree)
	writeFile(t, dir, "notes.txt", "x")
	writeFile(t, dir, ".git/c.json", adultTree)

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 2 || files[0] != a || files[1] != b {
		t.Errorf("Discover(dir) = %v, want [%s %s]", files, a, b)
	}

	if files, err := Discover(a); err != nil || len(files) != 1 {
		t.Errorf("Discover(file) = %v, %v", files, err)
	}

	var le *LoadError
	if _, err := Discover(filepath.Join(dir, "missing")); !errors.As(err, &le) || le.Message != "path not found" {
		t.Errorf("Discover(missing) error = %v", err)
	}
}

func TestLoader_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", adultTree)
	writeFile(t, dir, "b.json", adultTree)

	res, err := NewLoader(nil, nil, false, nil).Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Trees) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("trees = %d, skipped = %d", len(res.Trees), len(res.Skipped))
	}
	if !strings.Contains(res.Skipped[0].Error(), `duplicate tree name "adult"`) {
		t.Errorf("skip reason = %v", res.Skipped[0])
	}
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil, nil, true, nil)
	adult, err := loader.LoadFile(writeFile(t, dir, "adult.json", adultTree))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	total, err := loader.LoadFile(writeFile(t, dir, "total.yml", totalTree))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	r := NewRegistry()
	if r.Version() != "" || r.Len() != 0 {
		t.Fatalf("empty registry version = %q, len = %d", r.Version(), r.Len())
	}

	if err := r.Replace([]*Tree{total, adult}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if got := r.Names(); len(got) != 2 || got[0] != "adult" || got[1] != "total" {
		t.Errorf("Names() = %v", got)
	}
	if _, ok := r.Get("adult"); !ok {
		t.Error("Get(adult) not found")
	}
	v1 := r.Version()

	// Same content in a different order hashes identically.
	if err := r.Replace([]*Tree{adult, total}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if r.Version() != v1 {
		t.Errorf("version changed for identical content: %s != %s", r.Version(), v1)
	}

	if err := r.Replace([]*Tree{adult}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if r.Version() == v1 {
		t.Error("version unchanged after content change")
	}

	t.Run("rejects duplicates without mutating", func(t *testing.T) {
		err := r.Replace([]*Tree{total, total})
		var re *RegistryError
		if !errors.As(err, &re) || re.Tree != "total" {
			t.Errorf("Replace() error = %v", err)
		}
		if r.Len() != 1 {
			t.Errorf("Len() = %d after rejected replace", r.Len())
		}
	})

	t.Run("rejects unnamed", func(t *testing.T) {
		if err := r.Replace([]*Tree{{Root: adult.Root}}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestManager_ReloadKeepsPreviousSet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "adult.json", adultTree)

	rec := &fakeRecorder{}
	cfg := config.LibraryConfig{Mode: "file", Path: dir, Strict: true}
	m, err := NewManager(cfg, WithRecorder(rec))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx := context.Background()
	if err := m.Ready(ctx); err == nil {
		t.Error("Ready() before load should fail")
	}
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := m.Ready(ctx); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
	if got := rec.last(); got != (reloadCall{"file", true, 1}) {
		t.Errorf("recorded %+v", got)
	}

	writeFile(t, dir, "bad.json", invalidTree)
	if err := m.Reload(ctx); err == nil {
		t.Fatal("Reload() with invalid document should fail in strict mode")
	}
	if got := rec.last(); got != (reloadCall{"file", false, 1}) {
		t.Errorf("recorded %+v", got)
	}
	if _, err := m.Get("adult"); err != nil {
		t.Errorf("previous tree lost: %v", err)
	}
	if st := m.Status(); st.LastError == "" || st.Trees != 1 {
		t.Errorf("Status() = %+v", st)
	}

	if _, err := m.Get("missing"); !errors.Is(err, ErrTreeNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}
}

func TestManager_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "adult.json", adultTree)

	cfg := config.LibraryConfig{Mode: "file", Path: dir, Watch: true, Debounce: 20 * time.Millisecond}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "total.yaml", totalTree)

	deadline := time.Now().Add(3 * time.Second)
	for m.Registry().Len() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("tree set not reloaded, have %v", m.Registry().Names())
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestManager_WatchDisabled(t *testing.T) {
	m, err := NewManager(config.LibraryConfig{Mode: "file", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if err := m.Watch(context.Background()); err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestNewManager_UnknownMode(t *testing.T) {
	if _, err := NewManager(config.LibraryConfig{Mode: "s3"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var mu sync.Mutex
	calls := 0
	fire := func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	for i := 0; i < 5; i++ {
		d.Trigger(fire)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	mu.Unlock()

	d.Trigger(fire)
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("callback fired after Stop, calls = %d", calls)
	}
}

func treeNames(trees []*Tree) []string {
	names := make([]string, len(trees))
	for i, tr := range trees {
		names[i] = tr.Name
	}
	return names
}
