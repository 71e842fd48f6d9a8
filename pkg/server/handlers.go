package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"mercator-hq/opgraph/pkg/journal"
	"mercator-hq/opgraph/pkg/library"
	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
	"mercator-hq/opgraph/pkg/opgraph/parser"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/service"
)

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Tree      string          `json:"tree,omitempty"`
	Operation json.RawMessage `json:"operation,omitempty"`
	Locals    map[string]any  `json:"locals,omitempty"`
}

// EvaluateResponse is the body returned by POST /v1/evaluate.
type EvaluateResponse struct {
	Tree       string         `json:"tree,omitempty"`
	Outcome    string         `json:"outcome"`
	Result     map[string]any `json:"result"`
	DurationMS float64        `json:"duration_ms"`
	RecordID   string         `json:"record_id,omitempty"`
}

// LintResponse is the body returned by POST /v1/lint.
type LintResponse struct {
	Valid       bool               `json:"valid"`
	Name        string             `json:"name,omitempty"`
	Diagnostics []*diag.Diagnostic `json:"diagnostics"`
}

// TreeSummary describes a library tree in listings.
type TreeSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	RootTag     string `json:"root_tag"`
	Warnings    int    `json:"warnings"`
}

// TreeListResponse is the body returned by GET /v1/trees.
type TreeListResponse struct {
	Version string        `json:"version"`
	Trees   []TreeSummary `json:"trees"`
}

// TreeDetail is the body returned by GET /v1/trees/{name}.
type TreeDetail struct {
	TreeSummary
	Operation map[string]any     `json:"operation"`
	Issues    []*diag.Diagnostic `json:"issues,omitempty"`
}

// JournalResponse is the body returned by GET /v1/journal.
type JournalResponse struct {
	Records []*journal.Record `json:"records"`
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeTooLarge,
				"request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes", nil)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read request body", nil)
		return nil, false
	}
	return body, true
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req EvaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	sreq := service.Request{Tree: req.Tree, Locals: req.Locals}
	if len(req.Operation) > 0 && string(req.Operation) != "null" {
		op, err := s.parser.ParseNode(req.Operation, parser.FormatJSON)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, CodeInvalidTree, "operation could not be decoded", diag.FromError(err))
			return
		}
		sreq.Operation = op
	}

	resp, err := s.service.Evaluate(r.Context(), sreq)
	switch {
	case errors.Is(err, library.ErrTreeNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{
		Tree:       resp.Tree,
		Outcome:    resp.Outcome,
		Result:     result.Encode(resp.Result),
		DurationMS: float64(resp.Duration) / float64(time.Millisecond),
		RecordID:   resp.RecordID,
	})
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	format := parser.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct == "application/yaml" || ct == "application/x-yaml" || ct == "text/yaml" {
		format = parser.FormatYAML
	}

	resp := LintResponse{Diagnostics: []*diag.Diagnostic{}}
	doc, err := s.parser.ParseBytes(body, format, "request")
	if err != nil {
		resp.Diagnostics = append(resp.Diagnostics, diag.FromError(err)...)
		if len(resp.Diagnostics) == 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	lint := s.validator.Lint(doc.Tree)
	resp.Name = doc.Name
	resp.Valid = !lint.HasErrors()
	resp.Diagnostics = append(resp.Diagnostics, doc.Warnings...)
	resp.Diagnostics = append(resp.Diagnostics, lint.Items...)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		writeJSON(w, http.StatusOK, TreeListResponse{Trees: []TreeSummary{}})
		return
	}

	trees := s.library.Trees()
	resp := TreeListResponse{
		Version: s.library.Registry().Version(),
		Trees:   make([]TreeSummary, 0, len(trees)),
	}
	for _, t := range trees {
		resp.Trees = append(resp.Trees, summarize(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if s.library == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "tree library is not configured", nil)
		return
	}
	t, err := s.library.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, TreeDetail{
		TreeSummary: summarize(t),
		Operation:   ast.ToMap(t.Root),
		Issues:      t.Warnings,
	})
}

func (s *Server) handleQueryJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "journal is disabled", nil)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}

	records, err := s.journal.Query(r.Context(), q)
	if err != nil {
		var qe *journal.QueryError
		if errors.As(err, &qe) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
			return
		}
		s.logger.ErrorContext(r.Context(), "journal query failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "journal query failed", nil)
		return
	}
	if records == nil {
		records = []*journal.Record{}
	}
	writeJSON(w, http.StatusOK, JournalResponse{Records: records})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "journal is disabled", nil)
		return
	}

	rec, err := s.journal.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case err != nil:
		s.logger.ErrorContext(r.Context(), "journal lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "journal lookup failed", nil)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

// parseQuery reads tree, outcome, since, until (RFC 3339) and limit.
func parseQuery(r *http.Request) (*journal.Query, error) {
	v := r.URL.Query()
	q := &journal.Query{Tree: v.Get("tree"), Outcome: v.Get("outcome")}

	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		q.Limit = n
	}
	for key, dst := range map[string]*time.Time{"since": &q.Since, "until": &q.Until} {
		if raw := v.Get(key); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, errors.New(key + " must be an RFC 3339 timestamp")
			}
			*dst = t
		}
	}
	return q, nil
}

func summarize(t *library.Tree) TreeSummary {
	return TreeSummary{
		Name:        t.Name,
		Description: t.Description,
		Source:      t.Source,
		RootTag:     string(t.Root.Tag()),
		Warnings:    len(t.Warnings),
	}
}
