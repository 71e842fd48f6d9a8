package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mercator-hq/opgraph/pkg/config"
	"mercator-hq/opgraph/pkg/journal"
	"mercator-hq/opgraph/pkg/library"
	"mercator-hq/opgraph/pkg/opgraph/parser"
	"mercator-hq/opgraph/pkg/opgraph/validator"
	"mercator-hq/opgraph/pkg/service"
	"mercator-hq/opgraph/pkg/telemetry"
	"mercator-hq/opgraph/pkg/telemetry/health"
)

// Options holds the collaborators of a Server. Service and Telemetry are
// required; Library and Journal are optional.
type Options struct {
	Config    *config.Config
	Service   *service.Service
	Library   *library.Manager
	Journal   journal.Store
	Telemetry *telemetry.Telemetry
	Version   health.VersionInfo
}

// Server is the HTTP front end for evaluation, linting and inspection.
type Server struct {
	config    config.ServerConfig
	service   *service.Service
	library   *library.Manager
	journal   journal.Store
	tel       *telemetry.Telemetry
	logger    *slog.Logger
	parser    *parser.Parser
	validator *validator.Validator
	router    chi.Router
	version   health.VersionInfo
	metrics   string
	keys      *KeySet
	limiter   *RateLimiter
	certs     *CertReloader

	httpServer *http.Server
}

// New creates a Server and builds its routes.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if opts.Service == nil {
		return nil, errors.New("server: service is required")
	}
	if opts.Telemetry == nil {
		return nil, errors.New("server: telemetry is required")
	}

	maxDepth := opts.Config.Evaluator.MaxDepth
	s := &Server{
		config:    opts.Config.Server,
		service:   opts.Service,
		library:   opts.Library,
		journal:   opts.Journal,
		tel:       opts.Telemetry,
		logger:    opts.Telemetry.Logger.With("component", "server"),
		parser:    parser.NewParser().WithMaxDepth(maxDepth),
		validator: validator.NewValidator().WithMaxDepth(maxDepth),
		version:   opts.Version,
	}
	if opts.Config.Telemetry.Metrics.Enabled {
		s.metrics = opts.Config.Telemetry.Metrics.Path
	}
	if s.config.Auth.Enabled {
		keys, err := NewKeySet(s.config.Auth.Keys)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.keys = keys
	}
	s.limiter = NewRateLimiter(s.config.RateLimit)
	if s.config.TLS.Enabled {
		certs, err := NewCertReloader(s.config.TLS.CertFile, s.config.TLS.KeyFile, s.config.TLS.ReloadInterval, s.logger)
		if err != nil {
			return nil, fmt.Errorf("server: tls: %w", err)
		}
		s.certs = certs
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(requestID)
	r.Use(s.tel.Tracer.HTTPMiddleware)
	r.Use(accessLog(s.logger, s.tel.Metrics))

	r.Get("/healthz", s.tel.Health.LivenessHandler())
	r.Get("/readyz", s.tel.Health.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.version))
	if s.metrics != "" {
		r.Handle(s.metrics, s.tel.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if s.keys != nil {
			r.Use(authenticate(s.keys, s.config.Auth.Header, s.logger))
		}
		if s.limiter != nil {
			r.Use(rateLimit(s.limiter))
		}
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/lint", s.handleLint)
		r.Get("/trees", s.handleListTrees)
		r.Get("/trees/{name}", s.handleGetTree)
		r.Get("/journal", s.handleQueryJournal)
		r.Get("/journal/{id}", s.handleGetRecord)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "no route for "+r.URL.Path, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method "+r.Method+" not allowed", nil)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. When TLS is
// enabled ln is wrapped and the certificate files are watched.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.certs != nil {
		ln = tls.NewListener(ln, newTLSConfig(s.config.TLS, s.certs))
		go s.certs.Watch(ctx)
	}
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", ln.Addr().String(), "tls", s.certs != nil)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", "timeout", s.config.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}
