package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/config"
	"mercator-hq/opgraph/pkg/journal"
	"mercator-hq/opgraph/pkg/library"
	"mercator-hq/opgraph/pkg/opgraph/eval"
	"mercator-hq/opgraph/pkg/service"
	"mercator-hq/opgraph/pkg/telemetry"
)

// components selects the optional parts of an app.
type components struct {
	library bool
	journal bool
}

// app holds the wired collaborators shared by the commands.
type app struct {
	cfg       *config.Config
	tel       *telemetry.Telemetry
	evaluator *eval.Evaluator
	library   *library.Manager
	store     journal.Store
	recorder  *journal.Recorder
	service   *service.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	return cfg, nil
}

// newApp builds the telemetry stack and evaluator, then whichever of the
// library and journal the command needs. The journal is opened only when
// enabled in configuration.
func newApp(ctx context.Context, cfg *config.Config, with components) (*app, error) {
	tel, err := telemetry.New(&cfg.Telemetry, os.Stderr, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a := &app{cfg: cfg, tel: tel}

	ev := cfg.Evaluator
	evalCfg := &eval.Config{
		MaxDepth:       ev.MaxDepth,
		MaxParallelism: ev.MaxParallelism,
		FetchTimeout:   ev.FetchTimeout,
		RolesKey:       ev.RolesKey,
		Locale:         ev.Locale,
	}
	fetcher := eval.NewHTTPFetcher(&http.Client{Timeout: ev.FetchTimeout}, ev.UserAgent+"/"+Version)
	a.evaluator, err = eval.New(evalCfg,
		eval.WithLogger(tel.Logger),
		eval.WithRecorder(tel.Metrics),
		eval.WithTracer(tel.Tracer.Tracer("opgraph/eval")),
		eval.WithFetcher(fetcher),
	)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(tel.Logger),
		service.WithTreeRecorder(tel.Metrics),
		service.WithTracer(tel.Tracer.Tracer("opgraph/service")),
	}

	if with.library {
		a.library, err = library.NewManager(cfg.Library,
			library.WithLogger(tel.Logger),
			library.WithRecorder(tel.Metrics),
			library.WithMaxDepth(ev.MaxDepth),
		)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to create tree library: %w", err)
		}
		if err := a.library.Load(ctx); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to load tree library: %w", err)
		}
		opts = append(opts, service.WithTrees(a.library))
		tel.Health.Register("library", a.library.Ready)
	}

	if with.journal && cfg.Journal.Enabled {
		a.store, err = journal.Open(cfg.Journal, tel.Logger)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		a.recorder = journal.NewRecorder(a.store, journal.RecorderConfig{},
			journal.WithRedactor(tel.Redactor),
			journal.WithWriteRecorder(tel.Metrics),
			journal.WithRecorderLogger(tel.Logger),
		)
		opts = append(opts, service.WithJournal(a.recorder))
		if p, ok := a.store.(interface{ Ping(context.Context) error }); ok {
			tel.Health.Register("journal", p.Ping)
		}
	}

	a.service = service.New(a.evaluator, opts...)
	return a, nil
}

// openJournal opens the configured store for the journal subcommands,
// which work on the store directly and fail when it is disabled.
func openJournal(cfg *config.Config) (journal.Store, *telemetry.Telemetry, error) {
	if !cfg.Journal.Enabled {
		return nil, nil, errors.New("journal is disabled (set journal.enabled or OPGRAPH_JOURNAL_ENABLED)")
	}
	tel, err := telemetry.New(&cfg.Telemetry, os.Stderr, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	store, err := journal.Open(cfg.Journal, tel.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return store, tel, nil
}

// close drains the journal recorder, closes the store and flushes spans.
func (a *app) close(ctx context.Context) {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.tel.Logger.Warn("failed to close journal", "error", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.tel.Shutdown(shutdownCtx); err != nil {
		a.tel.Logger.Warn("failed to flush traces", "error", err)
	}
}
