// Package suite runs YAML test suites against operation trees.
//
// A suite names one tree, either from the library or from a document on
// disk, and lists cases of locals with the expected outcome:
//
//	name: adult checks
//	tree: adult            # or: file: trees/adult.json
//	cases:
//	  - name: of age
//	    locals: {age: 21}
//	    expect: {outcome: success, value: 21}
//	  - name: minor
//	    locals: {age: 12}
//	    expect:
//	      outcome: failure
//	      errors: ["less than"]
//	      error_types: [Comparison]
package suite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"mercator-hq/opgraph/pkg/opgraph/eval"
)

// Suite is one test suite file.
type Suite struct {
	Name  string `yaml:"name"`
	Tree  string `yaml:"tree"`
	File  string `yaml:"file"`
	Cases []Case `yaml:"cases"`

	// Path is the file the suite was loaded from.
	Path string `yaml:"-"`
}

// Case is one evaluation with its expectation.
type Case struct {
	Name   string         `yaml:"name"`
	Locals map[string]any `yaml:"locals"`
	Expect Expectation    `yaml:"expect"`
}

// Expectation describes the result a case must produce. Value is compared
// only when present in the suite; Errors are substrings that must each
// appear in some error message; ErrorTypes must each appear among the
// error categories.
type Expectation struct {
	Outcome    string    `yaml:"outcome"`
	Value      yaml.Node `yaml:"value"`
	Errors     []string  `yaml:"errors"`
	ErrorTypes []string  `yaml:"error_types"`
}

// HasValue reports whether the suite specified an expected value.
func (e *Expectation) HasValue() bool {
	return e.Value.Kind != 0
}

// ExpectedValue decodes the expected value into its JSON form.
func (e *Expectation) ExpectedValue() (any, error) {
	var v any
	if err := e.Value.Decode(&v); err != nil {
		return nil, err
	}
	return normalize(v)
}

// SuffixPatterns are the file names treated as suites when a directory is
// given to LoadAll.
var SuffixPatterns = []string{"_test.yaml", "_test.yml"}

// Load reads and validates one suite file.
func Load(path string) (*Suite, error) {
	// #nosec G304 - suite paths are supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse suite %s: %w", path, err)
	}
	s.Path = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.File != "" && !filepath.IsAbs(s.File) {
		s.File = filepath.Join(filepath.Dir(path), s.File)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}
	return &s, nil
}

// LoadAll loads every path, expanding directories to the suite files
// beneath them.
func LoadAll(paths []string) ([]*Suite, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("suite path not found: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSuiteFile(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", p, err)
		}
	}
	sort.Strings(files)

	suites := make([]*Suite, 0, len(files))
	var errs []error
	for _, f := range files {
		s, err := Load(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		suites = append(suites, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return suites, nil
}

// Validate checks that the suite names exactly one tree and that every
// case has a known expected outcome.
func (s *Suite) Validate() error {
	var errs []error
	switch {
	case s.Tree == "" && s.File == "":
		errs = append(errs, errors.New("one of tree or file is required"))
	case s.Tree != "" && s.File != "":
		errs = append(errs, errors.New("tree and file are mutually exclusive"))
	}
	if len(s.Cases) == 0 {
		errs = append(errs, errors.New("no cases"))
	}
	for i, c := range s.Cases {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("cases[%d]: name is required", i))
		}
		switch c.Expect.Outcome {
		case eval.OutcomeSuccess, eval.OutcomeFailure:
		default:
			errs = append(errs, fmt.Errorf("cases[%d]: outcome must be %q or %q, got %q",
				i, eval.OutcomeSuccess, eval.OutcomeFailure, c.Expect.Outcome))
		}
		if c.Expect.Outcome == eval.OutcomeSuccess && (len(c.Expect.Errors) > 0 || len(c.Expect.ErrorTypes) > 0) {
			errs = append(errs, fmt.Errorf("cases[%d]: errors expected on a success outcome", i))
		}
	}
	return errors.Join(errs...)
}

func isSuiteFile(name string) bool {
	for _, suffix := range SuffixPatterns {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// normalize round-trips v through JSON so that YAML integers, maps and
// timestamps compare equal to evaluator output.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeLocals(locals map[string]any) (map[string]any, error) {
	if len(locals) == 0 {
		return locals, nil
	}
	v, err := normalize(locals)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return m, nil
}
