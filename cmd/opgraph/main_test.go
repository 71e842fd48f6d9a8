package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/opgraph/pkg/cli"
)

const adultTree = `{
  "name": "adult",
  "description": "age is at least 18",
  "tree": {
    "tag": "IsAtLeast", "datatype": "Number",
    "operand": {"tag": "FromLocal", "datatype": "Number", "key": "age"},
    "test": {"tag": "Constant", "datatype": "Number", "value": 18}
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// resetFlags restores every flag to its default so that commands can be
// executed repeatedly within one test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the root command and returns stdout and the exit code.
func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), cli.ExitCode(err)
}

// libraryDir creates a tree library and points the configuration at it.
func libraryDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "trees/adult.json", adultTree)
	t.Setenv("OPGRAPH_LIBRARY_PATH", filepath.Join(dir, "trees"))
	t.Setenv("OPGRAPH_TELEMETRY_LOGGING_LEVEL", "error")
	return dir
}

func TestVersionCommand(t *testing.T) {
	out, code := run(t, "version")
	if code != cli.ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "opgraph "+Version) || !strings.Contains(out, "Go Version:") {
		t.Errorf("output = %q", out)
	}
}

func TestEvalCommand(t *testing.T) {
	dir := libraryDir(t)
	localsFile := writeFile(t, dir, "locals.yaml", "age: 40\n")
	treeFile := filepath.Join(dir, "trees", "adult.json")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"library tree", []string{"eval", "--tree", "adult", "--locals", `{"age": 21}`}, cli.ExitOK, "21"},
		{"failure outcome", []string{"eval", "--tree", "adult", "--locals", `{"age": 12}`}, cli.ExitFailure, "12 is less than 18."},
		{"tree file with yaml locals", []string{"eval", "--file", treeFile, "--locals-file", localsFile}, cli.ExitOK, "40"},
		{"inline operation", []string{"eval", "--operation", `{"tag":"Constant","datatype":"Number","value":7}`}, cli.ExitOK, "7"},
		{"json output", []string{"eval", "--tree", "adult", "--locals", `{"age": 30}`, "--format", "json"}, cli.ExitOK, `"right": 30`},
		{"unknown tree", []string{"eval", "--tree", "missing"}, cli.ExitError, ""},
		{"two sources", []string{"eval", "--tree", "adult", "--file", treeFile}, cli.ExitError, ""},
		{"no source", []string{"eval"}, cli.ExitError, ""},
		{"bad locals", []string{"eval", "--tree", "adult", "--locals", `[1]`}, cli.ExitError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := run(t, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (output %q)", code, tt.wantCode, out)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output %q does not contain %q", out, tt.wantOut)
			}
		})
	}
}

func TestLintCommand(t *testing.T) {
	dir := libraryDir(t)
	writeFile(t, dir, "bad/int.json", `{"tag":"Constant","datatype":"Integer","value":2.5}`)

	out, code := run(t, "lint")
	if code != cli.ExitOK {
		t.Fatalf("lint library exit code = %d, output %q", code, out)
	}
	if !strings.Contains(out, "1 files, 0 errors") {
		t.Errorf("output = %q", out)
	}

	out, code = run(t, "lint", filepath.Join(dir, "bad"), "--format", "json")
	if code != cli.ExitFailure {
		t.Fatalf("lint bad exit code = %d, want %d", code, cli.ExitFailure)
	}
	var report LintReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Errors == 0 || report.Files[0].Valid {
		t.Errorf("report = %+v", report)
	}

	out, code = run(t, "lint", filepath.Join(dir, "bad"), "--format", "csv")
	if code != cli.ExitFailure || !strings.HasPrefix(out, "file,severity,type,path,message\n") {
		t.Errorf("csv output = %q (exit %d)", out, code)
	}

	if _, code := run(t, "lint", filepath.Join(dir, "missing")); code != cli.ExitError {
		t.Errorf("missing path exit code = %d, want %d", code, cli.ExitError)
	}
}

func TestTestCommand(t *testing.T) {
	dir := libraryDir(t)
	writeFile(t, dir, "suites/adult_test.yaml", `tree: adult
cases:
  - name: of age
    locals: {age: 21}
    expect: {outcome: success, value: 21}
  - name: minor
    locals: {age: 12}
    expect: {outcome: failure, error_types: [Comparison]}
`)

	out, code := run(t, "test", filepath.Join(dir, "suites"))
	if code != cli.ExitOK {
		t.Fatalf("exit code = %d, output %q", code, out)
	}
	if !strings.Contains(out, "2 cases: 2 passed") {
		t.Errorf("output = %q", out)
	}

	writeFile(t, dir, "suites/wrong_test.yaml", `tree: adult
cases:
  - name: wrong
    locals: {age: 21}
    expect: {outcome: failure}
`)
	out, code = run(t, "test", filepath.Join(dir, "suites"), "--format", "junit")
	if code != cli.ExitFailure {
		t.Fatalf("exit code = %d, want %d", code, cli.ExitFailure)
	}
	if !strings.Contains(out, `<testsuites tests="3" failures="1"`) {
		t.Errorf("junit output = %q", out)
	}
}

func TestTreesCommand(t *testing.T) {
	libraryDir(t)

	out, code := run(t, "trees")
	if code != cli.ExitOK || !strings.Contains(out, "adult") || !strings.Contains(out, "IsAtLeast") {
		t.Errorf("trees output = %q (exit %d)", out, code)
	}

	out, code = run(t, "trees", "show", "adult", "--format", "json")
	if code != cli.ExitOK {
		t.Fatalf("show exit code = %d", code)
	}
	var doc TreeDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc.Tree["tag"] != "IsAtLeast" {
		t.Errorf("tree = %v", doc.Tree)
	}

	if _, code := run(t, "trees", "show", "missing"); code != cli.ExitError {
		t.Errorf("missing tree exit code = %d", code)
	}
}

func TestJournalCommands(t *testing.T) {
	dir := libraryDir(t)

	if _, code := run(t, "journal", "query"); code != cli.ExitError {
		t.Errorf("query with journal disabled exit code = %d, want %d", code, cli.ExitError)
	}

	t.Setenv("OPGRAPH_JOURNAL_ENABLED", "true")
	t.Setenv("OPGRAPH_JOURNAL_DRIVER", "sqlite")
	t.Setenv("OPGRAPH_JOURNAL_PATH", filepath.Join(dir, "journal.db"))

	run(t, "eval", "--tree", "adult", "--locals", `{"age": 21}`)
	run(t, "eval", "--tree", "adult", "--locals", `{"age": 12}`)

	out, code := run(t, "journal", "query", "--format", "json")
	if code != cli.ExitOK {
		t.Fatalf("query exit code = %d", code)
	}
	var list RecordList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(list.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(list.Records))
	}

	out, _ = run(t, "journal", "query", "--outcome", "failure", "--since", "1h")
	if !strings.Contains(out, "1 records") {
		t.Errorf("filtered output = %q", out)
	}

	out, code = run(t, "journal", "prune", "--retention-days", "1", "--dry-run")
	if code != cli.ExitOK || !strings.Contains(out, "0 records") {
		t.Errorf("dry-run output = %q (exit %d)", out, code)
	}
	out, code = run(t, "journal", "prune")
	if code != cli.ExitOK || !strings.Contains(out, "deleted 0 records") {
		t.Errorf("prune output = %q (exit %d)", out, code)
	}
}

func TestServeDryRun(t *testing.T) {
	libraryDir(t)

	out, code := run(t, "serve", "--dry-run")
	if code != cli.ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "1 trees loaded") {
		t.Errorf("output = %q", out)
	}
}

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2026-01-02T03:04:05Z", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), false},
		{"24h", now.Add(-24 * time.Hour), false},
		{"yesterday", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeFlag(tt.in, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTimeFlag() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTimeFlag() = %v, want %v", got, tt.want)
			}
		})
	}
}
