package suite

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/eval"
	"mercator-hq/opgraph/pkg/opgraph/parser"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/opgraph/validator"
	"mercator-hq/opgraph/pkg/service"
)

// Evaluator is the part of service.Service the runner needs.
type Evaluator interface {
	Evaluate(ctx context.Context, req service.Request) (*service.Response, error)
}

// Runner executes suites.
type Runner struct {
	evaluator Evaluator
	parser    *parser.Parser
	validator *validator.Validator
	logger    *slog.Logger
	onCase    func(CaseResult)
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxDepth bounds the depth of tree documents loaded from disk.
func WithMaxDepth(depth int) Option {
	return func(r *Runner) {
		r.parser = r.parser.WithMaxDepth(depth)
		r.validator = r.validator.WithMaxDepth(depth)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// OnCase registers a callback invoked after every case.
func OnCase(fn func(CaseResult)) Option {
	return func(r *Runner) {
		r.onCase = fn
	}
}

// NewRunner creates a Runner that evaluates through ev.
func NewRunner(ev Evaluator, opts ...Option) *Runner {
	r := &Runner{
		evaluator: ev,
		parser:    parser.NewParser(),
		validator: validator.NewValidator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every suite in order. It stops early only when ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context, suites []*Suite) *Report {
	start := time.Now()
	report := &Report{Suites: make([]SuiteResult, 0, len(suites))}
	for _, s := range suites {
		if ctx.Err() != nil {
			break
		}
		sr := r.runSuite(ctx, s)
		report.add(sr)
	}
	report.Duration = time.Since(start)
	return report
}

func (r *Runner) runSuite(ctx context.Context, s *Suite) SuiteResult {
	start := time.Now()
	sr := SuiteResult{Name: s.Name, Path: s.Path, Cases: make([]CaseResult, 0, len(s.Cases))}

	var root ast.Node
	var setupErr error
	if s.File != "" {
		root, setupErr = r.loadTree(s.File)
	}

	for _, c := range s.Cases {
		if ctx.Err() != nil {
			break
		}
		var cr CaseResult
		if setupErr != nil {
			cr = CaseResult{Suite: s.Name, Name: c.Name, Error: setupErr.Error()}
		} else {
			cr = r.runCase(ctx, s, root, c)
		}
		if r.onCase != nil {
			r.onCase(cr)
		}
		sr.Cases = append(sr.Cases, cr)
	}
	sr.Duration = time.Since(start)
	return sr
}

func (r *Runner) loadTree(path string) (ast.Node, error) {
	doc, err := r.parser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if lint := r.validator.Lint(doc.Tree); lint.HasErrors() {
		return nil, fmt.Errorf("tree %s is invalid: %w", path, lint.ToError())
	}
	return doc.Tree, nil
}

func (r *Runner) runCase(ctx context.Context, s *Suite, root ast.Node, c Case) CaseResult {
	cr := CaseResult{Suite: s.Name, Name: c.Name}

	locals, err := normalizeLocals(c.Locals)
	if err != nil {
		cr.Error = fmt.Sprintf("locals cannot be encoded: %v", err)
		return cr
	}

	req := service.Request{Tree: s.Tree, Operation: root, Locals: locals}
	resp, err := r.evaluator.Evaluate(ctx, req)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.Duration = resp.Duration
	cr.Outcome = resp.Outcome

	if outcomes, ok := resp.Result.LeftValue(); ok {
		for _, e := range outcomes.Errors() {
			cr.Errors = append(cr.Errors, e.String())
		}
		cr.Mismatches = checkFailure(c.Expect, outcomes)
	} else {
		v, _ := resp.Result.RightValue()
		if cr.Value, err = normalize(v); err != nil {
			cr.Error = fmt.Sprintf("result cannot be encoded: %v", err)
			return cr
		}
		cr.Mismatches = r.checkSuccess(c.Expect, cr.Value)
	}
	if cr.Outcome != c.Expect.Outcome {
		cr.Mismatches = append([]string{fmt.Sprintf("outcome is %s, want %s", cr.Outcome, c.Expect.Outcome)}, cr.Mismatches...)
	}
	cr.Passed = len(cr.Mismatches) == 0
	r.logger.Debug("suite case evaluated", "suite", s.Name, "case", c.Name, "passed", cr.Passed)
	return cr
}

func (r *Runner) checkSuccess(want Expectation, got any) []string {
	if want.Outcome != eval.OutcomeSuccess || !want.HasValue() {
		return nil
	}
	expected, err := want.ExpectedValue()
	if err != nil {
		return []string{fmt.Sprintf("expected value cannot be decoded: %v", err)}
	}
	if !reflect.DeepEqual(expected, got) {
		return []string{fmt.Sprintf("value is %s, want %s", result.Format(got), result.Format(expected))}
	}
	return nil
}

func checkFailure(want Expectation, got result.Outcomes) []string {
	var mismatches []string
	messages := got.Messages()
	for _, sub := range want.Errors {
		if !anyContains(messages, sub) {
			mismatches = append(mismatches, fmt.Sprintf("no error mentions %q", sub))
		}
	}
	for _, typ := range want.ErrorTypes {
		if !got.HasErrorType(result.ErrorType(typ)) {
			mismatches = append(mismatches, fmt.Sprintf("no %s error", typ))
		}
	}
	return mismatches
}

func anyContains(messages []string, sub string) bool {
	for _, m := range messages {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}
