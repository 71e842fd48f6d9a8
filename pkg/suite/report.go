package suite

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/opgraph/eval"
	"mercator-hq/opgraph/pkg/opgraph/result"
)

// CaseResult is the verdict for one case. Error is set when the case could
// not be evaluated at all; Mismatches lists every unmet expectation.
type CaseResult struct {
	Suite      string        `json:"suite"`
	Name       string        `json:"name"`
	Passed     bool          `json:"passed"`
	Outcome    string        `json:"outcome,omitempty"`
	Value      any           `json:"value,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	Mismatches []string      `json:"mismatches,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// SuiteResult groups the case results of one suite.
type SuiteResult struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Cases    []CaseResult  `json:"cases"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is the outcome of a run.
type Report struct {
	Suites   []SuiteResult `json:"suites"`
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Errored  int           `json:"errored"`
	Duration time.Duration `json:"duration_ns"`
}

func (r *Report) add(sr SuiteResult) {
	r.Suites = append(r.Suites, sr)
	for _, c := range sr.Cases {
		r.Total++
		switch {
		case c.Error != "":
			r.Errored++
		case c.Passed:
			r.Passed++
		default:
			r.Failed++
		}
	}
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// WriteText renders the report for a terminal.
func (r *Report) WriteText(w io.Writer) error {
	for _, s := range r.Suites {
		fmt.Fprintf(w, "%s (%s)\n", s.Name, s.Path)
		for _, c := range s.Cases {
			switch {
			case c.Error != "":
				fmt.Fprintf(w, "  ! %s\n      error: %s\n", c.Name, c.Error)
			case c.Passed:
				fmt.Fprintf(w, "  ✓ %s (%.2fms)\n", c.Name, c.Duration.Seconds()*1000)
			default:
				fmt.Fprintf(w, "  ✗ %s\n", c.Name)
				for _, m := range c.Mismatches {
					fmt.Fprintf(w, "      %s\n", m)
				}
				if c.Outcome == eval.OutcomeSuccess {
					fmt.Fprintf(w, "      got value: %s\n", result.Format(c.Value))
				}
				for _, e := range c.Errors {
					fmt.Fprintf(w, "      got error: %s\n", e)
				}
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d cases: %d passed, %d failed, %d errored (%s)\n",
		r.Total, r.Passed, r.Failed, r.Errored, r.Duration.Round(time.Millisecond))
	return err
}

// Header implements cli.Tabular.
func (r *Report) Header() []string {
	return []string{"suite", "case", "passed", "outcome", "duration_ms", "detail"}
}

// Rows implements cli.Tabular.
func (r *Report) Rows() [][]string {
	var rows [][]string
	for _, s := range r.Suites {
		for _, c := range s.Cases {
			rows = append(rows, []string{
				s.Name,
				c.Name,
				strconv.FormatBool(c.Passed),
				c.Outcome,
				strconv.FormatFloat(c.Duration.Seconds()*1000, 'f', 3, 64),
				c.detail(),
			})
		}
	}
	return rows
}

// JUnit implements cli.JUnitReporter.
func (r *Report) JUnit() *cli.JUnitSuites {
	out := &cli.JUnitSuites{
		Tests:    r.Total,
		Failures: r.Failed,
		Errors:   r.Errored,
		Time:     r.Duration.Seconds(),
	}
	for _, s := range r.Suites {
		js := cli.JUnitSuite{Name: s.Name, Tests: len(s.Cases), Time: s.Duration.Seconds()}
		for _, c := range s.Cases {
			jc := cli.JUnitCase{Name: c.Name, Classname: s.Name, Time: c.Duration.Seconds()}
			switch {
			case c.Error != "":
				js.Errors++
				jc.Error = &cli.JUnitMessage{Message: "case could not be evaluated", Body: c.Error}
			case !c.Passed:
				js.Failures++
				jc.Failure = &cli.JUnitMessage{Message: "expectation not met", Body: c.detail()}
			}
			js.Cases = append(js.Cases, jc)
		}
		out.Suites = append(out.Suites, js)
	}
	return out
}

func (c CaseResult) detail() string {
	switch {
	case c.Error != "":
		return c.Error
	case len(c.Mismatches) > 0:
		return strings.Join(c.Mismatches, "; ")
	}
	return ""
}
