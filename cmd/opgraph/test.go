package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/suite"
)

var testFlags struct {
	format   string
	progress bool
}

var testCmd = &cobra.Command{
	Use:   "test path...",
	Short: "Run tree test suites",
	Long: `Execute YAML test suites against operation trees.

Each path may be a suite file or a directory, which is searched for files
ending in _test.yaml or _test.yml.

Suite Format (YAML):
  name: adult checks
  tree: adult               # library tree, or
  file: ../trees/adult.json # tree document relative to the suite
  cases:
    - name: of age
      locals: {age: 21}
      expect:
        outcome: success    # success or failure
        value: 21           # optional: expected value
    - name: minor
      locals: {age: 12}
      expect:
        outcome: failure
        errors: ["less than"]      # optional: message substrings
        error_types: [Comparison]  # optional: error categories

Examples:
  # Run every suite under a directory
  opgraph test suites/

  # JUnit XML for CI with a progress bar on stderr
  opgraph test suites/ --format junit --progress > report.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTests,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVar(&testFlags.format, "format", "text", "output format: text, json, yaml, csv, junit")
	testCmd.Flags().BoolVar(&testFlags.progress, "progress", false, "show a progress bar on stderr")
}

func runTests(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(testFlags.format)
	if err != nil {
		return cli.NewCommandError("test", err)
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return cli.NewCommandError("test", err)
	}

	suites, err := suite.LoadAll(args)
	if err != nil {
		return cli.NewCommandError("test", fmt.Errorf("failed to load suites: %w", err))
	}
	if len(suites) == 0 {
		return cli.NewCommandError("test", fmt.Errorf("no suites found in %v", args))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	needLibrary := false
	total := 0
	for _, s := range suites {
		needLibrary = needLibrary || s.Tree != ""
		total += len(s.Cases)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, components{library: needLibrary})
	if err != nil {
		return cli.NewCommandError("test", err)
	}
	defer a.close(ctx)

	opts := []suite.Option{
		suite.WithMaxDepth(cfg.Evaluator.MaxDepth),
		suite.WithLogger(a.tel.Logger),
	}
	var progress *cli.SimpleProgress
	if testFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "cases")
		progress.Start(int64(total))
		opts = append(opts, suite.OnCase(func(r suite.CaseResult) { progress.Step(!r.Passed) }))
	}

	report := suite.NewRunner(a.service, opts...).Run(ctx, suites)
	if progress != nil {
		progress.Finish()
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return cli.NewCommandError("test", err)
	}
	if !report.OK() {
		return cli.NewFailure("test", fmt.Errorf("%d of %d cases did not pass", report.Failed+report.Errored, report.Total))
	}
	return nil
}
