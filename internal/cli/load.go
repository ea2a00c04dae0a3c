package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modelq/internal/platform"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Session string
}

// LoadResult is the output of the load command.
type LoadResult struct {
	Session string `json:"session"`
	Created bool   `json:"created"`
	Model   string `json:"model"`
	Roots   int    `json:"roots"`
	Nodes   int    `json:"nodes"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <model>",
		Short: "Load a model into a session",
		Long: `Load a YAML or JSON model into a session, replacing the model it held.

The session is created if it does not exist. Without --session a new
session with a generated id is created. Relative model paths that do not
exist are looked up in the configured search paths.

Examples:
  modelq load project.yaml --metamodel projects.cue
  modelq load project.yaml --session planning`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (default: new session)")

	return cmd
}

func runLoad(opts *LoadOptions, modelPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := openEnv(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer env.Close()

	var (
		sess    *platform.Session
		created = true
	)
	if opts.Session == "" {
		sess, err = env.platform.NewSession(ctx)
	} else {
		sess, created, err = env.platform.OpenSession(ctx, opts.Session)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, platform.ErrorCode(err), err)
	}

	graph, err := env.platform.LoadModel(ctx, sess, modelPath)
	if err != nil {
		return formatter.Fail(ExitFailure, platform.ErrorCode(err), err)
	}

	result := LoadResult{
		Session: sess.ID,
		Created: created,
		Model:   sess.ModelPath(),
		Roots:   len(graph.Roots),
		Nodes:   graph.Size(),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Loaded %s (%d nodes)\n", result.Model, result.Nodes)
	if created {
		fmt.Fprintf(w, "  session: %s (new)\n", result.Session)
	} else {
		fmt.Fprintf(w, "  session: %s\n", result.Session)
	}
	return nil
}
