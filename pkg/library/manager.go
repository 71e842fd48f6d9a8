package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/opgraph/pkg/config"
	"mercator-hq/opgraph/pkg/opgraph/parser"
	"mercator-hq/opgraph/pkg/opgraph/validator"
)

// ReloadRecorder receives the outcome of every load. It is satisfied by
// *metrics.Collector.
type ReloadRecorder interface {
	RecordReload(source string, ok bool, trees int)
}

type noopRecorder struct{}

func (noopRecorder) RecordReload(string, bool, int) {}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the reload recorder.
func WithRecorder(r ReloadRecorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithMaxDepth bounds the depth of loaded trees. It should match the
// evaluator's limit.
func WithMaxDepth(depth int) Option {
	return func(m *Manager) {
		m.maxDepth = depth
	}
}

// Manager owns the active tree set and keeps it in sync with its source.
type Manager struct {
	config   config.LibraryConfig
	registry *Registry
	loader   *Loader
	repo     *Repository
	logger   *slog.Logger
	recorder ReloadRecorder
	maxDepth int

	mu           sync.Mutex
	lastLoadTime time.Time
	lastLoadErr  error
	lastSkipped  []*LoadError
}

// NewManager creates a manager from configuration. Trees are not read until
// Load is called.
func NewManager(cfg config.LibraryConfig, opts ...Option) (*Manager, error) {
	m := &Manager{
		config:   cfg,
		registry: NewRegistry(),
		logger:   slog.Default(),
		recorder: noopRecorder{},
		maxDepth: config.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.loader = NewLoader(
		parser.NewParser().WithMaxDepth(m.maxDepth),
		validator.NewValidator().WithMaxDepth(m.maxDepth),
		cfg.Strict,
		m.logger,
	)

	switch cfg.Mode {
	case "", "file":
	case "git":
		repo, err := NewRepository(cfg.Git)
		if err != nil {
			return nil, err
		}
		m.repo = repo
	default:
		return nil, fmt.Errorf("unknown library mode %q", cfg.Mode)
	}

	return m, nil
}

// Load performs the initial load. In git mode the repository is cloned
// first.
func (m *Manager) Load(ctx context.Context) error {
	if m.repo != nil {
		if err := m.repo.Clone(ctx); err != nil {
			m.recordFailure(err)
			return err
		}
	}
	return m.Reload(ctx)
}

// Reload re-reads the source and swaps the tree set. On failure the previous
// set stays active.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	path := m.sourcePath()

	res, err := m.loader.Load(path)
	if err == nil {
		err = m.registry.Replace(res.Trees)
	}
	if err != nil {
		m.lastLoadErr = err
		m.recorder.RecordReload(m.source(), false, m.registry.Len())
		m.logger.ErrorContext(ctx, "tree library load failed, keeping previous trees",
			"path", path,
			"error", err,
			"active_trees", m.registry.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	m.lastLoadTime = time.Now()
	m.lastLoadErr = nil
	m.lastSkipped = res.Skipped
	m.recorder.RecordReload(m.source(), true, len(res.Trees))

	m.logger.InfoContext(ctx, "tree library loaded",
		"path", path,
		"trees", len(res.Trees),
		"skipped", len(res.Skipped),
		"version", m.registry.Version(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Watch keeps the library in sync with its source until ctx is cancelled.
// File mode watches the directory with fsnotify; git mode polls the remote.
// It returns immediately when watching is not configured.
func (m *Manager) Watch(ctx context.Context) error {
	reload := func() {
		_ = m.Reload(ctx)
	}

	if m.repo != nil {
		if m.config.Git.PollInterval <= 0 {
			return nil
		}
		return NewGitPoller(m.repo, m.config.Git.PollInterval, m.logger).Run(ctx, reload)
	}

	if !m.config.Watch {
		return nil
	}

	fw, err := NewFileWatcher(m.config.Path, m.config.Debounce, m.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	return fw.Watch(ctx, reload)
}

// Get returns the named tree.
func (m *Manager) Get(name string) (*Tree, error) {
	t, ok := m.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTreeNotFound, name)
	}
	return t, nil
}

// Trees returns the active trees sorted by name.
func (m *Manager) Trees() []*Tree {
	return m.registry.All()
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Status summarizes the last load.
type Status struct {
	Source       string       `json:"source"`
	Trees        int          `json:"trees"`
	Version      string       `json:"version"`
	LastLoadTime time.Time    `json:"last_load_time"`
	LastError    string       `json:"last_error,omitempty"`
	Skipped      []*LoadError `json:"-"`
}

// Status returns the state of the last load.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Source:       m.source(),
		Trees:        m.registry.Len(),
		Version:      m.registry.Version(),
		LastLoadTime: m.lastLoadTime,
		Skipped:      m.lastSkipped,
	}
	if m.lastLoadErr != nil {
		s.LastError = m.lastLoadErr.Error()
	}
	return s
}

// Ready reports an error until a load has succeeded.
func (m *Manager) Ready(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastLoadTime.IsZero() {
		if m.lastLoadErr != nil {
			return m.lastLoadErr
		}
		return errors.New("tree library not loaded")
	}
	return nil
}

func (m *Manager) recordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLoadErr = err
	m.recorder.RecordReload(m.source(), false, m.registry.Len())
}

func (m *Manager) sourcePath() string {
	if m.repo != nil {
		return m.repo.TreePath()
	}
	return m.config.Path
}

func (m *Manager) source() string {
	if m.repo != nil {
		return "git"
	}
	return "file"
}
