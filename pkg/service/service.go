// Package service runs trees on behalf of the HTTP server and the CLI: it
// resolves a library tree or accepts an inline one, evaluates it, and
// journals the outcome.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/opgraph/pkg/journal"
	"mercator-hq/opgraph/pkg/library"
	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/eval"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/telemetry/logging"
	"mercator-hq/opgraph/pkg/telemetry/tracing"
)

// ErrNoTree is returned when a request names neither a library tree nor an
// inline operation.
var ErrNoTree = errors.New("either a tree name or an inline operation is required")

// ErrAmbiguousTree is returned when a request names both.
var ErrAmbiguousTree = errors.New("tree name and inline operation are mutually exclusive")

// TreeRecorder counts evaluations per library tree. It is satisfied by
// *metrics.Collector.
type TreeRecorder interface {
	RecordTreeEvaluation(tree, outcome string)
}

// Trees resolves library trees by name. It is satisfied by
// *library.Manager.
type Trees interface {
	Get(name string) (*library.Tree, error)
}

// Request asks for one evaluation.
type Request struct {
	// Tree names a library tree.
	Tree string

	// Operation is an inline tree, used when Tree is empty.
	Operation ast.Node

	// Locals are the local values for the evaluation.
	Locals map[string]any
}

// Response is the outcome of one evaluation.
type Response struct {
	Tree     string
	Outcome  string
	Result   result.Result
	Duration time.Duration

	// RecordID is the journal record ID, empty when journaling is off.
	RecordID string
}

// Service evaluates trees.
type Service struct {
	evaluator *eval.Evaluator
	trees     Trees
	journal   *journal.Recorder
	metrics   TreeRecorder
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithTrees enables evaluation by library name.
func WithTrees(t Trees) Option {
	return func(s *Service) { s.trees = t }
}

// WithJournal records every evaluation.
func WithJournal(r *journal.Recorder) Option {
	return func(s *Service) { s.journal = r }
}

// WithTreeRecorder counts evaluations per tree.
func WithTreeRecorder(m TreeRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer sets the tracer for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New creates a service around evaluator.
func New(evaluator *eval.Evaluator, opts ...Option) *Service {
	s := &Service{
		evaluator: evaluator,
		logger:    slog.Default(),
		tracer:    otel.Tracer("opgraph/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate resolves and evaluates the requested tree. A Go error is returned
// only when the tree cannot be resolved; evaluation failures are reported in
// Response.Result.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Response, error) {
	ctx, span := s.tracer.Start(ctx, "service.evaluate",
		trace.WithAttributes(
			tracing.AttrTree.String(req.Tree),
			tracing.AttrRequestID.String(logging.GetRequestID(ctx)),
		),
	)
	defer span.End()

	root, err := s.resolve(req)
	if err != nil {
		tracing.SetStatus(span, err)
		return nil, err
	}
	if req.Tree != "" {
		ctx = logging.WithTree(ctx, req.Tree)
	}

	start := time.Now()
	res := s.evaluator.Evaluate(ctx, root, req.Locals)
	resp := &Response{
		Tree:     req.Tree,
		Outcome:  eval.OutcomeSuccess,
		Result:   res,
		Duration: time.Since(start),
	}
	if res.IsLeft() {
		resp.Outcome = eval.OutcomeFailure
	}
	span.SetAttributes(tracing.AttrOutcome.String(resp.Outcome))
	tracing.SetStatus(span, nil)

	if req.Tree != "" && s.metrics != nil {
		s.metrics.RecordTreeEvaluation(req.Tree, resp.Outcome)
	}

	if s.journal != nil {
		id, err := s.journal.Record(ctx, journal.Entry{
			RequestID: logging.GetRequestID(ctx),
			Tree:      req.Tree,
			Root:      root,
			Locals:    req.Locals,
			Result:    res,
			Duration:  resp.Duration,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "evaluation not journaled", "error", err)
		}
		resp.RecordID = id
	}

	return resp, nil
}

func (s *Service) resolve(req Request) (ast.Node, error) {
	switch {
	case req.Tree != "" && req.Operation != nil:
		return nil, ErrAmbiguousTree
	case req.Operation != nil:
		return req.Operation, nil
	case req.Tree == "":
		return nil, ErrNoTree
	case s.trees == nil:
		return nil, library.ErrTreeNotFound
	}

	t, err := s.trees.Get(req.Tree)
	if err != nil {
		return nil, err
	}
	return t.Root, nil
}
