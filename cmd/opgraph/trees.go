package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/library"
	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
)

var treesFlags struct {
	format string
}

var treesCmd = &cobra.Command{
	Use:   "trees",
	Short: "List the trees in the configured library",
	Long: `Load the configured tree library and list its trees.

Documents that fail to load are reported after the list and do not stop
the listing unless library.strict is set.

Examples:
  # List trees from the default library path
  opgraph trees

  # Library from a git repository
  OPGRAPH_LIBRARY_MODE=git OPGRAPH_LIBRARY_GIT_REPOSITORY=https://example.com/trees.git opgraph trees

  # Show one tree as YAML
  opgraph trees show adult --format yaml`,
	RunE: listTrees,
}

var treesShowCmd = &cobra.Command{
	Use:   "show name",
	Short: "Print one tree",
	Args:  cobra.ExactArgs(1),
	RunE:  showTree,
}

func init() {
	rootCmd.AddCommand(treesCmd)
	treesCmd.AddCommand(treesShowCmd)

	treesCmd.PersistentFlags().StringVar(&treesFlags.format, "format", "text", "output format: text, json, yaml, csv")
}

// TreeEntry is one row of the tree listing.
type TreeEntry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RootTag     string `json:"root_tag"`
	Source      string `json:"source"`
	Warnings    int    `json:"warnings"`
}

// TreeListing is the output of the trees command.
type TreeListing struct {
	Source  string      `json:"source"`
	Version string      `json:"version"`
	Trees   []TreeEntry `json:"trees"`
	Skipped []string    `json:"skipped,omitempty"`
}

// WriteText prints an aligned listing.
func (l *TreeListing) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%d trees from %s (version %s)\n", len(l.Trees), l.Source, l.Version)
	for _, t := range l.Trees {
		fmt.Fprintf(w, "  %-24s %-16s %s\n", t.Name, t.RootTag, t.Description)
	}
	for _, s := range l.Skipped {
		fmt.Fprintf(w, "  skipped: %s\n", s)
	}
	return nil
}

// Header implements cli.Tabular.
func (l *TreeListing) Header() []string {
	return []string{"name", "root_tag", "source", "warnings", "description"}
}

// Rows implements cli.Tabular.
func (l *TreeListing) Rows() [][]string {
	rows := make([][]string, 0, len(l.Trees))
	for _, t := range l.Trees {
		rows = append(rows, []string{t.Name, t.RootTag, t.Source, strconv.Itoa(t.Warnings), t.Description})
	}
	return rows
}

// TreeDocument is the output of trees show.
type TreeDocument struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Source      string             `json:"source"`
	Tree        map[string]any     `json:"tree"`
	Warnings    []*diag.Diagnostic `json:"warnings,omitempty"`
}

func loadLibrary(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, components{library: true})
}

func listTrees(cmd *cobra.Command, args []string) error {
	formatter, err := formatterFor(treesFlags.format)
	if err != nil {
		return cli.NewCommandError("trees", err)
	}
	a, err := loadLibrary(cmd)
	if err != nil {
		return cli.NewCommandError("trees", err)
	}
	defer a.close(cmd.Context())

	status := a.library.Status()
	listing := &TreeListing{Source: status.Source, Version: status.Version, Trees: []TreeEntry{}}
	for _, t := range a.library.Trees() {
		listing.Trees = append(listing.Trees, entryFor(t))
	}
	for _, s := range status.Skipped {
		listing.Skipped = append(listing.Skipped, s.Error())
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), listing); err != nil {
		return cli.NewCommandError("trees", err)
	}
	return nil
}

func showTree(cmd *cobra.Command, args []string) error {
	format := treesFlags.format
	if format == "text" {
		format = "yaml"
	}
	formatter, err := formatterFor(format)
	if err != nil {
		return cli.NewCommandError("trees show", err)
	}
	a, err := loadLibrary(cmd)
	if err != nil {
		return cli.NewCommandError("trees show", err)
	}
	defer a.close(cmd.Context())

	t, err := a.library.Get(args[0])
	if err != nil {
		return cli.NewCommandError("trees show", err)
	}
	doc := &TreeDocument{
		Name:        t.Name,
		Description: t.Description,
		Source:      t.Source,
		Tree:        ast.ToMap(t.Root),
		Warnings:    t.Warnings,
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), doc); err != nil {
		return cli.NewCommandError("trees show", err)
	}
	return nil
}

func entryFor(t *library.Tree) TreeEntry {
	return TreeEntry{
		Name:        t.Name,
		Description: t.Description,
		RootTag:     string(t.Root.Tag()),
		Source:      t.Source,
		Warnings:    len(t.Warnings),
	}
}

func formatterFor(s string) (cli.Formatter, error) {
	format, err := cli.ParseFormat(s)
	if err != nil {
		return nil, err
	}
	return cli.NewFormatter(format)
}
