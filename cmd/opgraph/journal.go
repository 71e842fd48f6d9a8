package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/opgraph/pkg/cli"
	"mercator-hq/opgraph/pkg/journal"
)

var journalFlags struct {
	tree          string
	outcome       string
	since         string
	until         string
	limit         int
	format        string
	retentionDays int
	dryRun        bool
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the evaluation journal",
	Long: `Query and maintain the evaluation journal.

The journal records every evaluation made by the service or the eval
command when journal.enabled is set in configuration.`,
}

var journalQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query journal records",
	Long: `Query journal records, newest first.

Time filters accept RFC 3339 timestamps or durations relative to now.

Examples:
  # Failures of one tree in the last day
  opgraph journal query --tree adult --outcome failure --since 24h

  # Export a window as CSV
  opgraph journal query --since 2026-01-01T00:00:00Z --until 2026-02-01T00:00:00Z --format csv`,
	RunE: queryJournal,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records past retention",
	Long: `Delete journal records older than the retention period.

The retention defaults to journal.retention_days; 0 keeps records forever.

Examples:
  # Apply the configured retention
  opgraph journal prune

  # Show what a 7 day retention would delete
  opgraph journal prune --retention-days 7 --dry-run`,
	RunE: pruneJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalQueryCmd, journalPruneCmd)

	f := journalQueryCmd.Flags()
	f.StringVarP(&journalFlags.tree, "tree", "t", "", "filter by tree name")
	f.StringVar(&journalFlags.outcome, "outcome", "", "filter by outcome: success, failure")
	f.StringVar(&journalFlags.since, "since", "", "only records at or after this time")
	f.StringVar(&journalFlags.until, "until", "", "only records before this time")
	f.IntVarP(&journalFlags.limit, "limit", "n", journal.DefaultQueryLimit, "maximum records to return")
	f.StringVar(&journalFlags.format, "format", "text", "output format: text, json, yaml, csv")

	journalPruneCmd.Flags().IntVar(&journalFlags.retentionDays, "retention-days", -1, "override journal.retention_days")
	journalPruneCmd.Flags().BoolVar(&journalFlags.dryRun, "dry-run", false, "count records without deleting")
}

// RecordList is the output of journal query.
type RecordList struct {
	Records []*journal.Record `json:"records"`
}

// WriteText prints one line per record.
func (l *RecordList) WriteText(w io.Writer) error {
	for _, r := range l.Records {
		tree := r.Tree
		if tree == "" {
			tree = "(inline " + r.RootTag + ")"
		}
		fmt.Fprintf(w, "%s  %s  %-20s %-7s %3d errors  %s\n",
			r.Timestamp.Format(time.RFC3339), r.ID, tree, r.Outcome, r.ErrorCount, r.Duration)
	}
	_, err := fmt.Fprintf(w, "%d records\n", len(l.Records))
	return err
}

// Header implements cli.Tabular.
func (l *RecordList) Header() []string {
	return []string{"id", "timestamp", "request_id", "tree", "root_tag", "outcome", "error_count", "duration_ms", "result"}
}

// Rows implements cli.Tabular.
func (l *RecordList) Rows() [][]string {
	rows := make([][]string, 0, len(l.Records))
	for _, r := range l.Records {
		rows = append(rows, []string{
			r.ID,
			r.Timestamp.Format(time.RFC3339Nano),
			r.RequestID,
			r.Tree,
			r.RootTag,
			r.Outcome,
			strconv.Itoa(r.ErrorCount),
			strconv.FormatFloat(float64(r.Duration)/float64(time.Millisecond), 'f', 3, 64),
			string(r.Result),
		})
	}
	return rows
}

func queryJournal(cmd *cobra.Command, args []string) error {
	formatter, err := formatterFor(journalFlags.format)
	if err != nil {
		return cli.NewCommandError("journal query", err)
	}

	now := time.Now()
	q := &journal.Query{Tree: journalFlags.tree, Outcome: journalFlags.outcome, Limit: journalFlags.limit}
	if q.Since, err = parseTimeFlag(journalFlags.since, now); err != nil {
		return cli.NewCommandError("journal query", fmt.Errorf("--since: %w", err))
	}
	if q.Until, err = parseTimeFlag(journalFlags.until, now); err != nil {
		return cli.NewCommandError("journal query", fmt.Errorf("--until: %w", err))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, _, err := openJournal(cfg)
	if err != nil {
		return cli.NewCommandError("journal query", err)
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("journal query", err)
	}
	if records == nil {
		records = []*journal.Record{}
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), &RecordList{Records: records}); err != nil {
		return cli.NewCommandError("journal query", err)
	}
	return nil
}

func pruneJournal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if journalFlags.retentionDays >= 0 {
		cfg.Journal.RetentionDays = journalFlags.retentionDays
	}
	store, tel, err := openJournal(cfg)
	if err != nil {
		return cli.NewCommandError("journal prune", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if cfg.Journal.RetentionDays == 0 {
		fmt.Fprintln(out, "retention is 0 days; records are kept forever")
		return nil
	}

	pruner := journal.NewPruner(store, cfg.Journal.RetentionDays, tel.Metrics, tel.Logger)
	if journalFlags.dryRun {
		matched, err := store.Query(cmd.Context(), &journal.Query{Until: pruner.Cutoff(), Limit: journal.MaxQueryLimit})
		if err != nil {
			return cli.NewCommandError("journal prune", err)
		}
		suffix := ""
		if len(matched) == journal.MaxQueryLimit {
			suffix = " or more"
		}
		fmt.Fprintf(out, "%d%s records older than %s would be deleted\n", len(matched), suffix, pruner.Cutoff().Format(time.RFC3339))
		return nil
	}

	removed, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("journal prune", err)
	}
	fmt.Fprintf(out, "deleted %d records older than %s\n", removed, pruner.Cutoff().Format(time.RFC3339))
	return nil
}

// parseTimeFlag accepts an RFC 3339 timestamp or a duration before now.
func parseTimeFlag(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither an RFC 3339 timestamp nor a duration", s)
	}
	return now.Add(-d), nil
}
