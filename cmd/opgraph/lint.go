package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/library"
	"mercator-hq/opgraph/pkg/opgraph/diag"
	"mercator-hq/opgraph/pkg/opgraph/parser"
	"mercator-hq/opgraph/pkg/opgraph/validator"
)

var lintFlags struct {
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint [path...]",
	Short: "Validate tree documents",
	Long: `Validate operation tree documents for structural and type errors.

Each path may be a document or a directory, which is searched recursively
for .json, .yaml and .yml files. Checks include:
  - JSON/YAML syntax
  - Known tags and required fields per node kind
  - Datatype compatibility between tags, operands and constants
  - Regular expression and FromAPI URL validity
  - Nesting depth

Without arguments the configured library path is linted.

Examples:
  # Lint a directory
  opgraph lint trees/

  # Strict mode (warnings as errors)
  opgraph lint trees/adult.json --strict

  # CSV output for spreadsheets, JSON for CI
  opgraph lint trees/ --format json`,
	RunE: lintTrees,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json, yaml, csv")
}

// LintResult is the validation result for a single document.
type LintResult struct {
	File        string             `json:"file"`
	Name        string             `json:"name,omitempty"`
	Valid       bool               `json:"valid"`
	Diagnostics []*diag.Diagnostic `json:"diagnostics,omitempty"`
}

// LintReport is the result of a lint run.
type LintReport struct {
	Files    []LintResult `json:"files"`
	Errors   int          `json:"errors"`
	Warnings int          `json:"warnings"`
	Strict   bool         `json:"strict"`
}

// Failed reports whether any document failed under the report's strictness.
func (r *LintReport) Failed() bool {
	return r.Errors > 0 || (r.Strict && r.Warnings > 0)
}

// WriteText prints one block per document with problems.
func (r *LintReport) WriteText(w io.Writer) error {
	for _, f := range r.Files {
		mark := "✓"
		if !f.Valid {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, f.File)
		for _, d := range f.Diagnostics {
			loc := d.Path
			if loc == "" {
				loc = "$"
			}
			fmt.Fprintf(w, "    %s %s [%s] %s\n", d.Severity, loc, d.Type, d.Message)
			if d.Suggestion != "" {
				fmt.Fprintf(w, "      suggestion: %s\n", d.Suggestion)
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d files, %d errors, %d warnings\n", len(r.Files), r.Errors, r.Warnings)
	return err
}

// Header implements cli.Tabular.
func (r *LintReport) Header() []string {
	return []string{"file", "severity", "type", "path", "message"}
}

// Rows implements cli.Tabular.
func (r *LintReport) Rows() [][]string {
	var rows [][]string
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			rows = append(rows, []string{f.File, string(d.Severity), string(d.Type), d.Path, d.Message})
		}
	}
	return rows
}

func lintTrees(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFlags.format)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{cfg.Library.Path}
	}

	var files []string
	for _, arg := range args {
		found, err := library.Discover(arg)
		if err != nil {
			return cli.NewCommandError("lint", err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return cli.NewCommandError("lint", fmt.Errorf("no tree documents found in %v", args))
	}

	p := parser.NewParser().WithMaxDepth(cfg.Evaluator.MaxDepth)
	v := validator.NewValidator().WithMaxDepth(cfg.Evaluator.MaxDepth)
	report := &LintReport{Strict: lintFlags.strict, Files: make([]LintResult, 0, len(files))}
	for _, file := range files {
		res := lintFile(p, v, file)
		for _, d := range res.Diagnostics {
			if d.Severity == diag.SeverityWarning {
				report.Warnings++
			} else {
				report.Errors++
			}
		}
		report.Files = append(report.Files, res)
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return cli.NewCommandError("lint", err)
	}
	if report.Failed() {
		return cli.NewFailure("lint", fmt.Errorf("%d errors, %d warnings", report.Errors, report.Warnings))
	}
	return nil
}

func lintFile(p *parser.Parser, v *validator.Validator, path string) LintResult {
	res := LintResult{File: path}

	doc, err := p.Parse(path)
	if err != nil {
		res.Diagnostics = diag.FromError(err)
		if len(res.Diagnostics) == 0 {
			res.Diagnostics = []*diag.Diagnostic{{
				Type:     diag.TypeIO,
				Severity: diag.SeverityError,
				Source:   path,
				Message:  err.Error(),
			}}
		}
		return res
	}

	res.Name = doc.Name
	res.Diagnostics = append(res.Diagnostics, doc.Warnings...)
	lint := v.Lint(doc.Tree)
	res.Diagnostics = append(res.Diagnostics, lint.Items...)
	res.Valid = !lint.HasErrors() && !(lintFlags.strict && len(res.Diagnostics) > 0)
	return res
}
