package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/opgraph/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "opgraph",
	Short: "opgraph - declarative operation tree engine",
	Long: `opgraph evaluates declarative operation trees: JSON or YAML documents
that inject values, fold them with operators, compare them and combine the
verdicts with logical connectives.

Every evaluation yields either a value or the complete list of reasons it
failed. Trees can be evaluated from the command line or served over HTTP,
loaded from a directory or a git repository, and journaled for audit.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults and OPGRAPH_* environment)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}
