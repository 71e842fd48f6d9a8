package eval

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/opgraph/types"
)

const tracerName = "mercator-hq/opgraph/eval"

// Locals is the read-only local-values context of one evaluation.
type Locals map[string]any

// Evaluator walks operation trees. It holds no per-evaluation state and is
// safe for concurrent use; independent evaluations never observe each other.
type Evaluator struct {
	config   *Config
	logger   *slog.Logger
	fetcher  Fetcher
	recorder Recorder
	tracer   trace.Tracer
	collator *types.Collator

	// patterns caches compiled regular expressions keyed by pattern and flags
	patterns sync.Map
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFetcher sets the collaborator used by FromAPI injectors. The default
// is an HTTPFetcher.
func WithFetcher(f Fetcher) Option {
	return func(e *Evaluator) {
		if f != nil {
			e.fetcher = f
		}
	}
}

// WithRecorder sets the measurement sink.
func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithTracer sets the tracer. The default is the global OpenTelemetry
// tracer, which is a no-op until a provider is installed.
func WithTracer(t trace.Tracer) Option {
	return func(e *Evaluator) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an evaluator. A nil config uses DefaultConfig().
func New(config *Config, opts ...Option) (*Evaluator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	collator, err := types.NewCollator(config.Locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	e := &Evaluator{
		config:   config,
		logger:   slog.Default(),
		fetcher:  NewHTTPFetcher(nil, ""),
		recorder: noopRecorder{},
		tracer:   otel.Tracer(tracerName),
		collator: collator,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the evaluator configuration.
func (e *Evaluator) Config() *Config {
	return e.config
}

// Evaluate walks the tree rooted at n with the given local values and
// returns its result. It never panics and never reports failure through a
// Go error: every failure is an error record in the Left arm.
//
// locals is copied before evaluation starts, so callers may reuse the map.
func (e *Evaluator) Evaluate(ctx context.Context, n ast.Node, locals map[string]any) result.Result {
	start := time.Now()
	rootTag := "undefined"
	if !ast.IsNil(n) {
		rootTag = string(n.Tag())
	}

	ctx, span := e.tracer.Start(ctx, "opgraph.Evaluate",
		trace.WithAttributes(
			attribute.String("opgraph.root_tag", rootTag),
			attribute.Int("opgraph.locals", len(locals)),
		))
	defer span.End()

	r := e.eval(ctx, 0, Locals(maps.Clone(locals)), n)

	duration := time.Since(start)
	outcome := outcomeLabel(r.IsRight())
	e.recorder.RecordEvaluation(rootTag, outcome, duration)

	span.SetAttributes(attribute.String("opgraph.outcome", outcome))
	if outcomes, failed := r.LeftValue(); failed {
		span.SetAttributes(attribute.Int("opgraph.errors", len(outcomes.Errors())))
		span.SetStatus(codes.Error, "evaluation failed")
	}

	e.logger.DebugContext(ctx, "evaluation complete",
		"root", rootTag,
		"outcome", outcome,
		"duration_ms", duration.Milliseconds(),
	)
	return r
}

// Pending is a deferred evaluation result.
type Pending struct {
	done   chan struct{}
	result result.Result
}

// Wait blocks until the evaluation completes and returns its result.
func (p *Pending) Wait() result.Result {
	<-p.done
	return p.result
}

// Done returns a channel closed when the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Go starts an evaluation in the background and returns immediately. It has
// the same semantics as Evaluate.
func (e *Evaluator) Go(ctx context.Context, n ast.Node, locals map[string]any) *Pending {
	p := &Pending{done: make(chan struct{})}
	locals = maps.Clone(locals)
	go func() {
		defer close(p.done)
		p.result = e.Evaluate(ctx, n, locals)
	}()
	return p
}

// eval dispatches one node. depth is the number of ancestors of n.
func (e *Evaluator) eval(ctx context.Context, depth int, locals Locals, n ast.Node) result.Result {
	if ast.IsNil(n) {
		return malformed(nil)
	}
	if depth >= e.config.MaxDepth {
		return result.FailWith(result.ErrorTypeStructural,
			fmt.Sprintf("Operation exceeds the maximum depth of %d.", e.config.MaxDepth),
			ast.Header(n))
	}
	if err := ctx.Err(); err != nil {
		return result.FailWith(result.ErrorTypeOperation,
			fmt.Sprintf("Evaluation cancelled: %v.", err), ast.Header(n))
	}
	// A tag must belong to the family of the node that carries it.
	if n.Tag().Kind() != ast.KindOf(n) {
		return malformed(n)
	}

	var r result.Result
	switch node := n.(type) {
	case *ast.Constant:
		r = e.evalConstant(node)
	case *ast.FromLocal:
		r = e.evalFromLocal(node, locals)
	case *ast.FromAPI:
		r = e.evalFromAPI(ctx, node, locals)
	case *ast.Operator:
		r = e.evalOperator(ctx, depth, locals, node)
	case *ast.Comparator:
		r = e.evalComparator(ctx, depth, locals, node)
	case *ast.Check:
		r = e.evalCheck(ctx, depth, locals, node)
	case *ast.Match:
		r = e.evalMatch(ctx, depth, locals, node)
	case *ast.Policy:
		r = e.evalPolicy(ctx, depth, locals, node)
	case *ast.Logical:
		r = e.evalLogical(ctx, depth, locals, node)
	default:
		r = malformed(n)
	}

	e.recorder.RecordNode(string(n.Tag()), outcomeLabel(r.IsRight()))
	return r
}

// malformed reports a node the evaluator cannot dispatch.
func malformed(n ast.Node) result.Result {
	label := "undefined"
	if !ast.IsNil(n) {
		label = string(n.Tag())
		if label == "" {
			label = "untagged"
		}
	}
	return result.FailWith(result.ErrorTypeStructural,
		fmt.Sprintf("Operation undefined or malformed: %s.", label),
		ast.Header(n))
}

// operation builds the snapshot attached to an error record: the node's own
// fields overlaid with the resolved values of its operands.
func operation(n ast.Node, resolved map[string]any) map[string]any {
	m := ast.Header(n)
	maps.Copy(m, resolved)
	return m
}
