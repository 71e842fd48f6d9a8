package library

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mercator-hq/opgraph/pkg/opgraph/parser"
	"mercator-hq/opgraph/pkg/opgraph/validator"
)

// Extensions lists the file extensions the loader reads.
var Extensions = []string{".json", ".yaml", ".yml"}

// LoadResult is the outcome of loading a directory.
type LoadResult struct {
	// Trees are the documents that decoded and validated, sorted by name.
	Trees []*Tree

	// Skipped are the documents rejected in non-strict mode.
	Skipped []*LoadError
}

// Loader reads tree documents from the file system.
type Loader struct {
	parser    *parser.Parser
	validator *validator.Validator
	strict    bool
	logger    *slog.Logger
}

// NewLoader creates a loader. In strict mode a single bad document fails the
// whole load; otherwise bad documents are skipped and logged.
func NewLoader(p *parser.Parser, v *validator.Validator, strict bool, logger *slog.Logger) *Loader {
	if p == nil {
		p = parser.NewParser()
	}
	if v == nil {
		v = validator.NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{parser: p, validator: v, strict: strict, logger: logger}
}

// LoadFile decodes and validates a single document.
func (l *Loader) LoadFile(path string) (*Tree, error) {
	doc, err := l.parser.Parse(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "decoding failed", Cause: err}
	}

	lint := l.validator.Lint(doc.Tree)
	if lint.HasErrors() {
		return nil, &LoadError{FilePath: path, Message: "validation failed", Cause: lint.ToError()}
	}

	return &Tree{
		Name:        doc.Name,
		Description: doc.Description,
		Source:      path,
		Root:        doc.Tree,
		Warnings:    append(doc.Warnings, lint.Warnings()...),
	}, nil
}

// Load reads every tree document under path, which may be a directory or a
// single file. Hidden files and directories are skipped.
func (l *Loader) Load(path string) (*LoadResult, error) {
	files, err := Discover(path)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{}
	var failures ErrorList
	seen := make(map[string]string, len(files))

	for _, file := range files {
		tree, err := l.LoadFile(file)
		if err == nil {
			if prev, dup := seen[tree.Name]; dup {
				err = &LoadError{FilePath: file, Message: fmt.Sprintf("duplicate tree name %q, first defined in %s", tree.Name, prev)}
			}
		}
		if err != nil {
			le, _ := err.(*LoadError)
			if l.strict {
				failures.Errors = append(failures.Errors, le)
				continue
			}
			l.logger.Warn("skipping invalid tree document",
				"path", file,
				"error", err,
			)
			res.Skipped = append(res.Skipped, le)
			continue
		}
		seen[tree.Name] = file
		res.Trees = append(res.Trees, tree)
	}

	if err := failures.ToError(); err != nil {
		return nil, err
	}

	sort.Slice(res.Trees, func(i, j int) bool { return res.Trees[i].Name < res.Trees[j].Name })
	return res, nil
}

// Discover returns path itself when it is a file, or the tree documents
// beneath it when it is a directory.
func Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		msg := "failed to access path"
		if os.IsNotExist(err) {
			msg = "path not found"
		}
		return nil, &LoadError{FilePath: path, Message: msg, Cause: err}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := collectFiles(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to walk directory", Cause: err}
	}
	return files, nil
}

// collectFiles returns the tree documents under dir in lexical order.
func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && hasTreeExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func hasTreeExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range Extensions {
		if ext == valid {
			return true
		}
	}
	return false
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
