package eval

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/price":
			if r.Header.Get("X-Tenant") != "acme" {
				http.Error(w, "missing tenant", http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"data": {"items": [{"price": 12.5}, {"price": 7}]}}`)
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"method": "`+r.Method+`", "agent": "`+r.UserAgent()+`", "body": `+string(body)+`}`)
		case "/broken":
			_, _ = io.WriteString(w, `{"data":`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	fetcher := NewHTTPFetcher(srv.Client(), "opgraph-test")
	parse := func(raw string) *url.URL {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("url.Parse() error = %v", err)
		}
		return u
	}

	t.Run("decodes json", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, &Request{Method: "GET", URL: parse(srv.URL + "/price"), Headers: map[string]string{"X-Tenant": "acme"}})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		got, err := Select(doc, "data.items[1].price")
		if err != nil || got != 7.0 {
			t.Errorf("Select() = %v, %v", got, err)
		}
	})

	t.Run("sends json body and user agent", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, &Request{Method: "POST", URL: parse(srv.URL + "/echo"), Body: map[string]any{"q": 1}})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		m := doc.(map[string]any)
		if m["method"] != "POST" || m["agent"] != "opgraph-test" {
			t.Errorf("echo = %v", m)
		}
		if body := m["body"].(map[string]any); body["q"] != 1.0 {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("status error", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, &Request{Method: "GET", URL: parse(srv.URL + "/nope")})
		var fe *FetchError
		if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound || !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("Fetch() error = %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := fetcher.Fetch(ctx, &Request{Method: "GET", URL: parse(srv.URL + "/broken")}); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("size limit", func(t *testing.T) {
		small := NewHTTPFetcher(srv.Client(), "").WithMaxResponseBytes(8)
		_, err := small.Fetch(ctx, &Request{Method: "GET", URL: parse(srv.URL + "/price"), Headers: map[string]string{"X-Tenant": "acme"}})
		if err == nil || !strings.Contains(err.Error(), "exceeds 8 bytes") {
			t.Errorf("Fetch() error = %v", err)
		}
	})
}

func TestFromAPI(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		case "/missing":
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"rate": {"eur": 0.92}, "codes": ["EUR", "USD"]}`)
	}))
	defer srv.Close()

	ev := newTestEvaluator(t, WithFetcher(NewHTTPFetcher(srv.Client(), "")))
	ctx := context.Background()

	t.Run("selects sub-value", func(t *testing.T) {
		tree := &ast.FromAPI{Type: ast.DatatypeNumber, Method: "GET", URL: srv.URL + "/rates", Options: ast.FetchOptions{Local: "rate.eur"}}
		if got := mustRight(t, ev.Evaluate(ctx, tree, nil)); got != 0.92 {
			t.Errorf("got %v, want 0.92", got)
		}
	})

	t.Run("local override skips fetch", func(t *testing.T) {
		before := calls.Load()
		tree := &ast.FromAPI{Type: ast.DatatypeNumber, URL: srv.URL + "/rates", Options: ast.FetchOptions{Local: "rate.eur"}}
		if got := mustRight(t, ev.Evaluate(ctx, tree, map[string]any{"rate.eur": 1.5})); got != 1.5 {
			t.Errorf("got %v, want 1.5", got)
		}
		if calls.Load() != before {
			t.Error("fetch issued despite local override")
		}
	})

	t.Run("local override reads numeric strings like FromLocal", func(t *testing.T) {
		locals := map[string]any{"age": "12"}
		fromAPI := &ast.FromAPI{Type: ast.DatatypeNumber, URL: srv.URL + "/rates", Options: ast.FetchOptions{Local: "age"}}
		fromLocal := &ast.FromLocal{Type: ast.DatatypeNumber, Key: "age"}

		a := mustRight(t, ev.Evaluate(ctx, fromAPI, locals))
		b := mustRight(t, ev.Evaluate(ctx, fromLocal, locals))
		if a != 12.0 || a != b {
			t.Errorf("FromAPI = %v, FromLocal = %v, want 12", a, b)
		}

		left := mustLeft(t, ev.Evaluate(ctx, fromAPI, map[string]any{"age": "twelve"}))
		if got := left.Messages()[0]; got != "value is not a Number" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("unparseable url echoes parse error", func(t *testing.T) {
		tree := &ast.FromAPI{URL: "http://[::1"}
		left := mustLeft(t, ev.Evaluate(ctx, tree, nil))
		errs := left.ByType(result.ErrorTypeTransport)
		if len(errs) != 1 || !strings.Contains(errs[0].Message, "missing ']' in host") {
			t.Errorf("got %v", left.Errors())
		}
	})

	t.Run("status failure becomes record", func(t *testing.T) {
		tree := &ast.FromAPI{URL: srv.URL + "/missing"}
		left := mustLeft(t, ev.Evaluate(ctx, tree, nil))
		if !left.HasErrorType(result.ErrorTypeTransport) || !strings.Contains(left.Messages()[0], "404") {
			t.Errorf("got %v", left.Errors())
		}
	})

	t.Run("missing selector path", func(t *testing.T) {
		tree := &ast.FromAPI{URL: srv.URL + "/rates", Options: ast.FetchOptions{Local: "rate.gbp"}}
		left := mustLeft(t, ev.Evaluate(ctx, tree, nil))
		if !left.HasErrorType(result.ErrorTypeTransport) || !strings.Contains(left.Messages()[0], "rate.gbp") {
			t.Errorf("got %v", left.Errors())
		}
	})

	t.Run("fetched value shape checked", func(t *testing.T) {
		tree := &ast.FromAPI{Type: ast.DatatypeNumber, URL: srv.URL + "/rates", Options: ast.FetchOptions{Local: "codes"}}
		left := mustLeft(t, ev.Evaluate(ctx, tree, nil))
		if left.Messages()[0] != "value is not a Number" {
			t.Errorf("got %v", left.Messages())
		}
	})

	t.Run("fetch timeout", func(t *testing.T) {
		fast, err := New(DefaultConfig().WithFetchTimeout(20*time.Millisecond), WithFetcher(NewHTTPFetcher(srv.Client(), "")))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		left := mustLeft(t, fast.Evaluate(ctx, &ast.FromAPI{URL: srv.URL + "/slow"}, nil))
		if !left.HasErrorType(result.ErrorTypeTransport) {
			t.Errorf("got %v", left.Errors())
		}
	})
}

func TestSelect(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"list":  []any{10.0, map[string]any{"b": "deep"}},
			"names": []string{"x", "y"},
		},
	}

	tests := []struct {
		path    string
		want    any
		wantErr bool
	}{
		{path: "a.list[0]", want: 10.0},
		{path: "a.list.1.b", want: "deep"},
		{path: "a.list[-1].b", want: "deep"},
		{path: "a.names[1]", want: "y"},
		{path: "a.list[2]", wantErr: true},
		{path: "a.missing", wantErr: true},
		{path: "a.list.x", wantErr: true},
		{path: "a.list[0].b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Select(doc, tt.path)
			if tt.wantErr {
				var se *SelectorError
				if !errors.As(err, &se) {
					t.Errorf("Select() error = %v, want SelectorError", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Select() = %v, %v; want %v", got, err, tt.want)
			}
		})
	}

	if got, _ := Select(doc, ""); got == nil {
		t.Error("empty path should return the document")
	}
}
