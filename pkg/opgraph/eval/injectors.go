package eval

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/opgraph/types"
)

func (e *Evaluator) evalConstant(n *ast.Constant) result.Result {
	if n.Value == nil {
		return result.FailWith(result.ErrorTypeValue, "value is missing", ast.Header(n))
	}
	return checkShape(n, n.Datatype(), n.Value)
}

func (e *Evaluator) evalFromLocal(n *ast.FromLocal, locals Locals) result.Result {
	v, ok := locals[n.Key]
	if !ok || v == nil {
		if n.Optional {
			return result.Ok(nil)
		}
		return result.FailWith(result.ErrorTypeValue,
			fmt.Sprintf("local value %s is missing", n.Key), ast.Header(n))
	}

	return checkLocal(n, n.Datatype(), v)
}

// checkLocal is checkShape for values read from locals. Form inputs arrive
// as text, so numeric datatypes accept numeric strings.
func checkLocal(n ast.Node, dt ast.Datatype, v any) result.Result {
	if s, isString := v.(string); isString && dt.IsNumeric() {
		f, err := types.ToFloat(s)
		if err != nil {
			return result.FailWith(result.ErrorTypeValue,
				fmt.Sprintf("value is not a %s", dt), operation(n, map[string]any{"value": v}))
		}
		v = f
	}
	return checkShape(n, dt, v)
}

func (e *Evaluator) evalFromAPI(ctx context.Context, n *ast.FromAPI, locals Locals) result.Result {
	selector := n.Options.Local
	if selector != "" {
		if v, ok := locals[selector]; ok {
			return checkLocal(n, n.Datatype(), v)
		}
	}

	u, err := url.Parse(n.URL)
	if err != nil {
		return result.FailWith(result.ErrorTypeTransport, err.Error(), ast.Header(n))
	}

	method := strings.ToUpper(n.Method)
	if method == "" {
		method = "GET"
	}

	ctx, span := e.tracer.Start(ctx, "opgraph.FromAPI",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", u.Redacted()),
		))
	defer span.End()

	if e.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	doc, err := e.fetcher.Fetch(ctx, &Request{
		Method:  method,
		URL:     u,
		Headers: n.Options.Headers,
		Body:    n.Options.Body,
	})
	duration := time.Since(start)
	e.recorder.RecordFetch(method, outcomeLabel(err == nil), duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		e.logger.WarnContext(ctx, "remote fetch failed",
			"method", method,
			"url", u.Redacted(),
			"error", err,
		)
		return result.FailWith(result.ErrorTypeTransport,
			fmt.Sprintf("Failed to fetch %s: %v", u.Redacted(), err), ast.Header(n))
	}

	v, err := Select(doc, selector)
	if err != nil {
		return result.FailWith(result.ErrorTypeTransport,
			fmt.Sprintf("Failed to read %s from %s: %v", selector, u.Redacted(), err), ast.Header(n))
	}
	if v == nil {
		return result.FailWith(result.ErrorTypeValue, "value is missing", ast.Header(n))
	}
	return checkShape(n, n.Datatype(), v)
}

// checkShape accepts v when it has the basic shape of dt.
func checkShape(n ast.Node, dt ast.Datatype, v any) result.Result {
	if !types.ConformsTo(dt, v) {
		return result.FailWith(result.ErrorTypeValue,
			fmt.Sprintf("value is not a %s", dt), operation(n, map[string]any{"value": v}))
	}
	return result.Ok(v)
}
