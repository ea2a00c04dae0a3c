package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/modelq/internal/platform"
	"github.com/roach88/modelq/internal/queryir"
	"github.com/roach88/modelq/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Session string
}

// HistoryEntry is one query log record as shown to the user.
type HistoryEntry struct {
	store.QueryRecord
	Query string `json:"query"` // human-readable form of SpecJSON
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the query log of a session",
		Long: `Show the queries run in a session, oldest first.

Examples:
  modelq history --session planning
  modelq history --session planning --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := openEnv(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer env.Close()

	sess, err := env.session(ctx, opts.Session, formatter)
	if err != nil {
		return err
	}

	records, err := env.platform.History(ctx, sess)
	if err != nil {
		return formatter.Fail(ExitCommandError, platform.ErrorCode(err), err)
	}

	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{QueryRecord: rec, Query: describeSpec(rec.SpecJSON)}
	}

	switch formatter.Format {
	case "json":
		return formatter.Success(entries)
	case "table":
		rows := make([]table.Row, len(entries))
		for i, e := range entries {
			rows[i] = table.Row{e.Seq, e.TypeName, e.Query, e.ResultCount, shortID(e.ID)}
		}
		formatter.Table(table.Row{"seq", "type", "query", "results", "id"}, rows)
		return nil
	}

	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintf(w, "No queries in session %s.\n", sess.ID)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%d  %s %s -> %s\n", e.Seq, e.TypeName, e.Query, pluralize(e.ResultCount, "instance"))
	}
	return nil
}

// describeSpec renders a stored canonical spec for display. A spec that no
// longer decodes is shown verbatim.
func describeSpec(specJSON string) string {
	spec, err := queryir.DecodeJSON([]byte(specJSON))
	if err != nil {
		return specJSON
	}
	return spec.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
