package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"mercator-hq/opgraph/pkg/config"
)

// ErrNotCloned is returned by repository operations issued before Clone.
var ErrNotCloned = errors.New("repository not initialized, call Clone first")

// PullResult describes the effect of a pull.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
	HadChanges   bool
}

// TreeFilesChanged reports whether any changed file is a tree document.
func (p *PullResult) TreeFilesChanged() bool {
	for _, f := range p.ChangedFiles {
		if hasTreeExtension(f) {
			return true
		}
	}
	return false
}

// Repository is a local clone of a Git remote holding tree documents.
type Repository struct {
	config    config.GitConfig
	localPath string
	auth      transport.AuthMethod

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewRepository prepares a repository from configuration. Nothing is cloned
// until Clone is called.
func NewRepository(cfg config.GitConfig) (*Repository, error) {
	if cfg.Repository == "" {
		return nil, errors.New("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, errors.New("branch cannot be empty")
	}

	auth, err := authMethod(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to configure git auth: %w", err)
	}

	localPath := cfg.LocalPath
	if localPath == "" {
		localPath = filepath.Join(os.TempDir(), "opgraph-trees")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultGitTimeout
	}

	return &Repository{config: cfg, localPath: localPath, auth: auth}, nil
}

// TreePath returns the directory inside the clone that holds tree documents.
func (r *Repository) TreePath() string {
	return filepath.Join(r.localPath, r.config.Path)
}

// Clone clones the remote, or opens an existing clone at the local path.
func (r *Repository) Clone(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(filepath.Join(r.localPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing clone: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.localPath, 0o755); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, r.localPath, false, &gogit.CloneOptions{
		URL:           r.config.Repository,
		Auth:          r.auth,
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Depth:         r.config.Depth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	r.repo = repo
	return nil
}

// Pull fetches the tracked branch and fast-forwards the working tree.
func (r *Repository) Pull(ctx context.Context) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	fromSHA, err := r.head()
	if err != nil {
		return nil, err
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.config.Branch),
		SingleBranch:  true,
		Auth:          r.auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	toSHA, err := r.head()
	if err != nil {
		return nil, err
	}

	res := &PullResult{FromSHA: fromSHA, ToSHA: toSHA, HadChanges: fromSHA != toSHA}
	if res.HadChanges {
		if res.ChangedFiles, err = r.changedFiles(fromSHA, toSHA); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Head returns the SHA of the checked out commit.
func (r *Repository) Head() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return "", ErrNotCloned
	}
	return r.head()
}

func (r *Repository) head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

func (r *Repository) changedFiles(fromSHA, toSHA string) ([]string, error) {
	fromCommit, err := r.repo.CommitObject(plumbing.NewHash(fromSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", fromSHA, err)
	}
	toCommit, err := r.repo.CommitObject(plumbing.NewHash(toSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", toSHA, err)
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else {
			files = append(files, change.From.Name)
		}
	}
	return files, nil
}

// authMethod builds the go-git transport auth for the configured type.
func authMethod(cfg config.GitAuthConfig) (transport.AuthMethod, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil

	case "token":
		if cfg.Token == "" {
			return nil, errors.New("token cannot be empty")
		}
		// Hosting providers accept any non-empty username with a token.
		return &http.BasicAuth{Username: "opgraph", Password: cfg.Token}, nil

	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, errors.New("ssh key path cannot be empty")
		}
		info, err := os.Stat(cfg.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access ssh key file: %w", err)
		}
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, fmt.Errorf("ssh key file permissions too open (%o), should be 0600", mode)
		}
		auth, err := ssh.NewPublicKeysFromFile("git", cfg.SSHKeyPath, cfg.SSHKeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load ssh key: %w", err)
		}
		return auth, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}

// GitPoller pulls a repository on an interval and calls onChange when a
// pull brings in changed tree documents.
type GitPoller struct {
	repo     *Repository
	interval time.Duration
	logger   *slog.Logger
}

// NewGitPoller creates a poller for repo.
func NewGitPoller(repo *Repository, interval time.Duration, logger *slog.Logger) *GitPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitPoller{repo: repo, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. Pull failures are logged and retried on
// the next tick.
func (p *GitPoller) Run(ctx context.Context, onChange func()) error {
	if p.interval <= 0 {
		return errors.New("poll interval must be positive")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.InfoContext(ctx, "git poller started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("git poller stopped")
			return nil
		case <-ticker.C:
			p.Poll(ctx, onChange)
		}
	}
}

// Poll performs a single pull and reports whether onChange was called.
func (p *GitPoller) Poll(ctx context.Context, onChange func()) bool {
	res, err := p.repo.Pull(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "git pull failed", "error", err)
		return false
	}
	if !res.HadChanges {
		return false
	}
	if !res.TreeFilesChanged() {
		p.logger.InfoContext(ctx, "no tree documents changed, skipping reload",
			"to_sha", shortSHA(res.ToSHA),
			"changed_files", len(res.ChangedFiles),
		)
		return false
	}

	p.logger.InfoContext(ctx, "tree documents changed",
		"from_sha", shortSHA(res.FromSHA),
		"to_sha", shortSHA(res.ToSHA),
		"changed_files", len(res.ChangedFiles),
	)
	onChange()
	return true
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
