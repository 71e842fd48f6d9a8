package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"mercator-hq/opgraph/pkg/config"
)

// commitFile writes name into the repository at dir and commits it.
func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) {
	t.Helper()
	writeFile(t, dir, name, content)

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add(%s) error = %v", name, err)
	}
	_, err = wt.Commit("update "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func newSourceRepo(t *testing.T) (*gogit.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: "refs/heads/main"},
	})
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	commitFile(t, repo, dir, "trees/adult.json", adultTree)
	return repo, dir
}

func gitConfig(source, local string) config.GitConfig {
	return config.GitConfig{
		Repository: source,
		Branch:     "main",
		Path:       "trees",
		Auth:       config.GitAuthConfig{Type: "none"},
		Timeout:    10 * time.Second,
		LocalPath:  local,
	}
}

func TestNewRepository_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.GitConfig
	}{
		{name: "missing url", cfg: config.GitConfig{Branch: "main"}},
		{name: "missing branch", cfg: config.GitConfig{Repository: "https://example.com/trees.git"}},
		{name: "token without value", cfg: config.GitConfig{Repository: "https://example.com/trees.git", Branch: "main", Auth: config.GitAuthConfig{Type: "token"}}},
		{name: "ssh key missing", cfg: config.GitConfig{Repository: "git@example.com:trees.git", Branch: "main", Auth: config.GitAuthConfig{Type: "ssh", SSHKeyPath: "/nonexistent/id_ed25519"}}},
		{name: "unknown auth", cfg: config.GitConfig{Repository: "https://example.com/trees.git", Branch: "main", Auth: config.GitAuthConfig{Type: "kerberos"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRepository(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAuthMethod_Token(t *testing.T) {
	auth, err := authMethod(config.GitAuthConfig{Type: "token", Token: "ghp_example"})
	if err != nil {
		t.Fatalf("authMethod() error = %v", err)
	}
	if auth.Name() != "http-basic-auth" {
		t.Errorf("auth = %s", auth.Name())
	}
}

func TestRepository_CloneAndPull(t *testing.T) {
	source, sourceDir := newSourceRepo(t)
	r, err := NewRepository(gitConfig(sourceDir, filepath.Join(t.TempDir(), "clone")))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	ctx := context.Background()
	if _, err := r.Pull(ctx); err != ErrNotCloned {
		t.Errorf("Pull() before Clone error = %v", err)
	}
	if err := r.Clone(ctx); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.TreePath(), "adult.json")); err != nil {
		t.Fatalf("cloned tree missing: %v", err)
	}

	res, err := r.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if res.HadChanges {
		t.Errorf("Pull() with no new commits reported changes: %+v", res)
	}

	commitFile(t, source, sourceDir, "NOTES.txt", "not a tree")
	res, err = r.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !res.HadChanges || res.TreeFilesChanged() {
		t.Errorf("non-tree change: %+v", res)
	}

	commitFile(t, source, sourceDir, "trees/total.yaml", totalTree)
	res, err = r.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !res.TreeFilesChanged() || len(res.ChangedFiles) != 1 || res.ChangedFiles[0] != "trees/total.yaml" {
		t.Errorf("tree change: %+v", res)
	}

	// A second repository over the same local path opens the existing clone.
	again, err := NewRepository(gitConfig(sourceDir, r.localPath))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := again.Clone(ctx); err != nil {
		t.Fatalf("Clone() over existing clone error = %v", err)
	}
	head, _ := r.Head()
	if got, _ := again.Head(); got != head {
		t.Errorf("Head() = %s, want %s", got, head)
	}
}

func TestManager_GitMode(t *testing.T) {
	source, sourceDir := newSourceRepo(t)

	rec := &fakeRecorder{}
	cfg := config.LibraryConfig{Mode: "git", Git: gitConfig(sourceDir, filepath.Join(t.TempDir(), "clone"))}
	m, err := NewManager(cfg, WithRecorder(rec))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx := context.Background()
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := rec.last(); got != (reloadCall{"git", true, 1}) {
		t.Errorf("recorded %+v", got)
	}

	commitFile(t, source, sourceDir, "trees/total.yaml", totalTree)
	poller := NewGitPoller(m.repo, time.Second, nil)
	if !poller.Poll(ctx, func() { _ = m.Reload(ctx) }) {
		t.Fatal("Poll() did not detect tree change")
	}
	if names := m.Registry().Names(); len(names) != 2 {
		t.Errorf("trees after poll = %v", names)
	}
	if poller.Poll(ctx, func() { t.Error("unexpected reload") }) {
		t.Error("Poll() without new commits reported a change")
	}
}
