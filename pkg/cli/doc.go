/*
Package cli provides the output formatters, exit codes, progress reporting
and signal handling shared by the opgraph command.

Output Formatting:

Command results can be rendered as text, JSON, YAML, CSV or JUnit XML:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Text output uses the value's WriteText method when it has one. CSV output
requires a Tabular value and JUnit output requires a JUnitReporter.

Exit Codes:

Commands return a CommandError to select the process exit code. ExitFailure
signals a negative verdict (an evaluation failed, a tree did not lint, a
test case did not pass); ExitError signals the command itself could not run.

	os.Exit(cli.ExitCode(err))

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
