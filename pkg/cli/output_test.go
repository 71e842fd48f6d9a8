package cli

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type textResult struct{ lines []string }

func (r textResult) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(r.lines, "\n")+"\n")
	return err
}

type table struct{}

func (table) Header() []string { return []string{"id", "outcome"} }
func (table) Rows() [][]string {
	return [][]string{{"a", "success"}, {"b", "failure, with comma"}}
}

type junitResult struct{}

func (junitResult) JUnit() *JUnitSuites {
	return &JUnitSuites{
		Tests:    2,
		Failures: 1,
		Suites: []JUnitSuite{{
			Name:     "adult",
			Tests:    2,
			Failures: 1,
			Cases: []JUnitCase{
				{Name: "of age", Classname: "adult"},
				{Name: "minor", Classname: "adult", Failure: &JUnitMessage{Message: "outcome mismatch", Body: "want success"}},
			},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"junit", FormatJUnit, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"plain value", "test message", "test message\n"},
		{"text writer", textResult{lines: []string{"a", "b"}}, "a\nb\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TextFormatter{}).Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("Format() = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	data := struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}{"adult", 18}

	for _, indent := range []bool{false, true} {
		var buf bytes.Buffer
		if err := (&JSONFormatter{Indent: indent}).FormatTo(&buf, data); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if got["name"] != "adult" {
			t.Errorf("name = %v, want adult", got["name"])
		}
		if indent != strings.Contains(buf.String(), "\n  ") {
			t.Errorf("indent = %v but output is %q", indent, buf.String())
		}
	}
}

func TestYAMLFormatter_UsesJSONNames(t *testing.T) {
	data := struct {
		RecordID string `json:"record_id"`
		Count    int    `json:"count"`
	}{"abc", 2}

	out, err := (&YAMLFormatter{}).Format(data)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got["record_id"] != "abc" || got["count"] != 2 {
		t.Errorf("decoded = %v", got)
	}
}

func TestCSVFormatter(t *testing.T) {
	out, err := (&CSVFormatter{}).Format(table{})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "id,outcome\na,success\nb,\"failure, with comma\"\n"
	if string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}

	if _, err := (&CSVFormatter{}).Format("not tabular"); err == nil {
		t.Error("Format() of a non-tabular value should fail")
	}
}

func TestJUnitFormatter(t *testing.T) {
	out, err := (&JUnitFormatter{}).Format(junitResult{})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.HasPrefix(string(out), xml.Header) {
		t.Error("output is missing the XML header")
	}

	var got JUnitSuites
	if err := xml.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not XML: %v", err)
	}
	if got.Tests != 2 || got.Failures != 1 || len(got.Suites[0].Cases) != 2 {
		t.Errorf("decoded = %+v", got)
	}
	if f := got.Suites[0].Cases[1].Failure; f == nil || f.Message != "outcome mismatch" {
		t.Errorf("failure = %+v", f)
	}

	if _, err := (&JUnitFormatter{}).Format(42); err == nil {
		t.Error("Format() of a non-report value should fail")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   Formatter
	}{
		{FormatText, &TextFormatter{}},
		{FormatJSON, &JSONFormatter{}},
		{FormatYAML, &YAMLFormatter{}},
		{FormatCSV, &CSVFormatter{}},
		{FormatJUnit, &JUnitFormatter{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFormatter(tt.format)
			if err != nil {
				t.Fatalf("NewFormatter() error = %v", err)
			}
			if got, want := fmt.Sprintf("%T", f), fmt.Sprintf("%T", tt.want); got != want {
				t.Errorf("NewFormatter() = %s, want %s", got, want)
			}
		})
	}

	if _, err := NewFormatter("html"); err == nil {
		t.Error("NewFormatter(html) should fail")
	}
}
