package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/eval"
	"mercator-hq/opgraph/pkg/opgraph/parser"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/service"
)

var evalFlags struct {
	tree       string
	file       string
	operation  string
	locals     string
	localsFile string
	format     string
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate an operation tree",
	Long: `Evaluate one operation tree against local values and print the result.

The tree is taken from exactly one of:
  --tree       a tree in the configured library
  --file       a tree document (JSON or YAML, bare node or envelope)
  --operation  an inline JSON node

The command exits 0 when the tree evaluates to a value and 1 when it
evaluates to a list of errors.

Examples:
  # Library tree with inline locals
  opgraph eval --tree adult --locals '{"age": 21}'

  # Tree document with locals from a YAML file
  opgraph eval --file trees/total.yaml --locals-file locals.yaml

  # Inline node, JSON output
  opgraph eval --operation '{"tag":"Sum","datatype":"Number","operands":[...]}' --format json`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.tree, "tree", "t", "", "library tree name")
	evalCmd.Flags().StringVarP(&evalFlags.file, "file", "f", "", "tree document path")
	evalCmd.Flags().StringVar(&evalFlags.operation, "operation", "", "inline JSON operation node")
	evalCmd.Flags().StringVarP(&evalFlags.locals, "locals", "l", "", "local values as a JSON object")
	evalCmd.Flags().StringVar(&evalFlags.localsFile, "locals-file", "", "local values file (JSON or YAML, - for stdin)")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json, yaml")
	evalCmd.MarkFlagsMutuallyExclusive("tree", "file", "operation")
	evalCmd.MarkFlagsOneRequired("tree", "file", "operation")
	evalCmd.MarkFlagsMutuallyExclusive("locals", "locals-file")
}

// EvalOutput is the printed result of an evaluation.
type EvalOutput struct {
	Tree       string         `json:"tree,omitempty"`
	Outcome    string         `json:"outcome"`
	Result     map[string]any `json:"result"`
	DurationMS float64        `json:"duration_ms"`
	RecordID   string         `json:"record_id,omitempty"`

	res result.Result
}

// WriteText prints the value, or one line per error.
func (o *EvalOutput) WriteText(w io.Writer) error {
	if outcomes, ok := o.res.LeftValue(); ok {
		fmt.Fprintf(w, "failure (%d errors)\n", len(outcomes.Errors()))
		for _, e := range outcomes.Errors() {
			fmt.Fprintf(w, "  %s\n", e.String())
		}
		return nil
	}
	v, _ := o.res.RightValue()
	_, err := fmt.Fprintln(w, result.Format(v))
	return err
}

func runEval(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evalFlags.format)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	locals, err := readLocals(cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	req := service.Request{Tree: evalFlags.tree, Locals: locals}
	p := parser.NewParser().WithMaxDepth(cfg.Evaluator.MaxDepth)
	switch {
	case evalFlags.file != "":
		doc, err := p.Parse(evalFlags.file)
		if err != nil {
			return cli.NewCommandError("eval", err)
		}
		req.Operation = doc.Tree
	case evalFlags.operation != "":
		var node ast.Node
		if node, err = p.ParseNode([]byte(evalFlags.operation), parser.FormatJSON); err != nil {
			return cli.NewCommandError("eval", err)
		}
		req.Operation = node
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, components{library: evalFlags.tree != "", journal: true})
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	defer a.close(ctx)

	resp, err := a.service.Evaluate(ctx, req)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	out := &EvalOutput{
		Tree:       resp.Tree,
		Outcome:    resp.Outcome,
		Result:     result.Encode(resp.Result),
		DurationMS: float64(resp.Duration) / float64(time.Millisecond),
		RecordID:   resp.RecordID,
		res:        resp.Result,
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), out); err != nil {
		return cli.NewCommandError("eval", err)
	}

	if resp.Outcome == eval.OutcomeFailure {
		return cli.NewFailure("eval", errors.New("tree evaluated to a failure"))
	}
	return nil
}

// readLocals decodes --locals or --locals-file into a JSON-shaped map.
func readLocals(stdin io.Reader) (map[string]any, error) {
	var data []byte
	yamlInput := false
	switch {
	case evalFlags.locals != "":
		data = []byte(evalFlags.locals)
	case evalFlags.localsFile == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read locals from stdin: %w", err)
		}
		data = b
	case evalFlags.localsFile != "":
		// #nosec G304 - the operator names the locals file.
		b, err := os.ReadFile(evalFlags.localsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read locals: %w", err)
		}
		data = b
		ext := strings.ToLower(filepath.Ext(evalFlags.localsFile))
		yamlInput = ext == ".yaml" || ext == ".yml"
	default:
		return map[string]any{}, nil
	}
	return decodeLocals(data, yamlInput)
}

func decodeLocals(data []byte, yamlInput bool) (map[string]any, error) {
	if yamlInput {
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("locals are not a YAML mapping: %w", err)
		}
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("locals cannot be represented as JSON: %w", err)
		}
	}

	locals := map[string]any{}
	if err := json.Unmarshal(data, &locals); err != nil {
		return nil, fmt.Errorf("locals are not a JSON object: %w", err)
	}
	return locals, nil
}
