package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/modelq/internal/engine"
	"github.com/roach88/modelq/internal/ir"
	"github.com/roach88/modelq/internal/platform"
	"github.com/roach88/modelq/internal/queryir"
)

// QueryOptions holds flags for the instances and select commands.
type QueryOptions struct {
	*RootOptions
	Session   string
	QueryFile string // YAML or JSON condition spec
	Where     string // first condition, or a whole expression
	Where2    string // second condition
	Compose   string // "and" | "or"
}

// QueryOutput is the output of a query command.
type QueryOutput struct {
	Session string           `json:"session"`
	Type    string           `json:"type"`
	Query   string           `json:"query"`
	Count   int              `json:"count"`
	QueryID string           `json:"query_id"`
	Stats   engine.Stats     `json:"stats"`
	Results []map[string]any `json:"results"`
}

// NewInstancesCommand creates the instances command.
func NewInstancesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instances <type>",
		Short: "List all instances of a type",
		Long: `List every instance of a type, subtypes included, in model order.

Examples:
  modelq instances Task --session planning
  modelq instances Project --session planning --format table`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], &queryir.ConditionSpec{}, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select <type>",
		Short: "List the instances of a type that match a query",
		Long: `List the instances of a type that satisfy up to two conditions.

String comparators: starts with, ends with, contains, equals.
Numeric comparators: greater than, lower than, equals.
An instance whose attribute is unset or of another kind never matches.

The query is given either as an expression, as two conditions and an
operator, or as a YAML/JSON file in wire shape.

Examples:
  modelq select Task --session planning --where "days greater than 3"
  modelq select Task --session planning --where 'description starts with "this is" and days lower than 3'
  modelq select Task --session planning --where "days lower than 2" --where2 "days greater than 10" --compose or
  modelq select Project --session planning --query query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			spec, err := buildSpec(opts)
			if err != nil {
				code := string(engine.ErrorCode(err))
				if code == "" {
					code = platform.CodeInvalidArgument
				}
				return formatter.Fail(ExitCommandError, code, err)
			}
			return runQuery(opts, args[0], spec, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (required)")
	cmd.Flags().StringVarP(&opts.QueryFile, "query", "q", "", "YAML or JSON query file")
	cmd.Flags().StringVar(&opts.Where, "where", "", "query expression or first condition")
	cmd.Flags().StringVar(&opts.Where2, "where2", "", "second condition")
	cmd.Flags().StringVar(&opts.Compose, "compose", "", "operator joining --where and --where2 (and|or)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

// buildSpec builds the condition spec from the select flags.
func buildSpec(opts *QueryOptions) (*queryir.ConditionSpec, error) {
	if opts.QueryFile != "" {
		if opts.Where != "" || opts.Where2 != "" || opts.Compose != "" {
			return nil, fmt.Errorf("--query cannot be combined with --where, --where2 or --compose")
		}
		data, err := os.ReadFile(opts.QueryFile)
		if err != nil {
			return nil, fmt.Errorf("read query file: %w", err)
		}
		if strings.EqualFold(filepath.Ext(opts.QueryFile), ".json") {
			return queryir.DecodeJSON(data)
		}
		return queryir.DecodeYAML(data)
	}

	if opts.Where2 == "" {
		if opts.Compose != "" {
			return nil, fmt.Errorf("--compose requires --where2")
		}
		return queryir.ParseExpression(opts.Where)
	}
	if opts.Where == "" {
		return nil, fmt.Errorf("--where2 requires --where")
	}

	c1, err := queryir.ParseCondition(opts.Where)
	if err != nil {
		return nil, err
	}
	c2, err := queryir.ParseCondition(opts.Where2)
	if err != nil {
		return nil, err
	}
	return queryir.Both(c1, queryir.Composition(opts.Compose), c2), nil
}

func runQuery(opts *QueryOptions, typeName string, spec *queryir.ConditionSpec, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	for _, warning := range queryir.Validate(spec).Warnings {
		formatter.VerboseLog("warning: %s", warning)
	}

	env, err := openEnv(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer env.Close()

	sess, err := env.session(ctx, opts.Session, formatter)
	if err != nil {
		return err
	}

	res, err := env.platform.Query(ctx, sess, typeName, spec)
	if err != nil {
		return formatter.Fail(ExitFailure, platform.ErrorCode(err), err)
	}

	docs := make([]map[string]any, len(res.Nodes))
	for i, n := range res.Nodes {
		docs[i] = ir.NodeDocument(n)
	}
	out := QueryOutput{
		Session: sess.ID,
		Type:    typeName,
		Query:   spec.String(),
		Count:   len(res.Nodes),
		QueryID: res.Record.ID,
		Stats:   res.Stats,
		Results: docs,
	}

	switch formatter.Format {
	case "json":
		return formatter.Success(out)
	case "table":
		header, rows := nodeTable(res.Nodes)
		formatter.Table(header, rows)
		return nil
	}

	w := formatter.Writer
	for _, n := range res.Nodes {
		fmt.Fprintln(w, formatNode(n))
	}
	fmt.Fprintf(w, "found %d instances of %s\n", out.Count, typeName)
	formatter.VerboseLog("query %s: scanned %d, matched %d, skipped %d", out.Query, out.Stats.Scanned, out.Stats.Matched, out.Stats.Skipped)
	return nil
}

// attributeColumns returns the attribute names of nodes in declaration
// order, each once.
func attributeColumns(nodes []*ir.Node) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		for _, a := range ir.AllAttributes(n.Type) {
			if !seen[a.Name] {
				seen[a.Name] = true
				cols = append(cols, a.Name)
			}
		}
	}
	return cols
}

// nodeTable lays out nodes as rows: the type, then one column per
// attribute. Unset attributes are blank.
func nodeTable(nodes []*ir.Node) (table.Row, []table.Row) {
	cols := attributeColumns(nodes)
	header := table.Row{"type"}
	for _, c := range cols {
		header = append(header, c)
	}

	rows := make([]table.Row, len(nodes))
	for i, n := range nodes {
		row := table.Row{n.TypeName()}
		for _, c := range cols {
			row = append(row, ir.FormatValue(n.Get(c)))
		}
		rows[i] = row
	}
	return header, rows
}

// formatNode renders a node on one line: its type then its set attributes,
// strings quoted.
func formatNode(n *ir.Node) string {
	var b strings.Builder
	b.WriteString(n.TypeName())
	for _, a := range ir.AllAttributes(n.Type) {
		v := n.Get(a.Name)
		if ir.IsNull(v) {
			continue
		}
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString("=")
		if s, ok := v.(ir.String); ok {
			b.WriteString(strconv.Quote(string(s)))
		} else {
			b.WriteString(ir.FormatValue(v))
		}
	}
	return b.String()
}
