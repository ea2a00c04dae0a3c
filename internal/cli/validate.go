package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/modelq/internal/compiler"
	"github.com/roach88/modelq/internal/ir"
	"github.com/roach88/modelq/internal/loader"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Schema string                     `json:"schema,omitempty"`
	Files  int                        `json:"files,omitempty"`
	Types  []TypeSummary              `json:"types,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// TypeSummary describes one compiled type.
type TypeSummary struct {
	Name       string   `json:"name"`
	Abstract   bool     `json:"abstract,omitempty"`
	Extends    []string `json:"extends,omitempty"`
	Attributes []string `json:"attributes"` // name:kind, inherited included
	Contains   []string `json:"contains,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [metamodel]",
		Short: "Validate a metamodel and list its types",
		Long: `Compile a CUE metamodel (a .cue file or a directory of CUE files)
and check it: supertypes and contained types exist, inheritance is acyclic,
attribute names are unique through inheritance.

Without an argument the configured metamodel is validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if rootOpts.Config != nil {
				path = rootOpts.Config.Metamodel
			}
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	if path == "" {
		return outputValidateError(formatter, loader.ErrCodeNotFound, "no metamodel given and none configured", nil)
	}

	mm, err := loader.LoadMetamodel(path)
	if err != nil {
		var loadErr *loader.LoadError
		if !errors.As(err, &loadErr) {
			return outputValidateError(formatter, loader.ErrCodeGeneric, err.Error(), nil)
		}
		if len(loadErr.Violations) > 0 {
			return outputValidationErrors(formatter, loadErr.Violations)
		}
		if loadErr.Code == loader.ErrCodeCompile {
			return outputValidationErrors(formatter, []compiler.ValidationError{{
				Field:   "metamodel",
				Message: loadErr.Error(),
				Code:    loadErr.Code,
			}})
		}
		return outputValidateError(formatter, loadErr.Code, loadErr.Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", mm.FileCount, path)

	result := ValidationResult{
		Valid:  true,
		Schema: mm.Schema.Name,
		Files:  mm.FileCount,
		Types:  summarizeTypes(mm.Schema),
	}
	return outputValidateSuccess(formatter, result)
}

// summarizeTypes lists the schema's types in declaration order.
func summarizeTypes(schema *ir.Schema) []TypeSummary {
	types := make([]TypeSummary, 0, len(schema.Types))
	for _, t := range schema.Types {
		attrs := []string{}
		for _, a := range ir.AllAttributes(t) {
			attrs = append(attrs, fmt.Sprintf("%s:%s", a.Name, a.Kind))
		}
		types = append(types, TypeSummary{
			Name:       t.Name,
			Abstract:   t.Abstract,
			Extends:    t.Supertypes,
			Attributes: attrs,
			Contains:   t.Contains,
		})
	}
	return types
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	switch formatter.Format {
	case "json":
		return formatter.Success(result)
	case "table":
		rows := make([]table.Row, len(result.Types))
		for i, t := range result.Types {
			rows[i] = table.Row{t.Name, strings.Join(t.Extends, ", "), strings.Join(t.Attributes, ", "), strings.Join(t.Contains, ", ")}
		}
		formatter.Table(table.Row{"type", "extends", "attributes", "contains"}, rows)
		return nil
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Metamodel %s valid (%d types)\n", result.Schema, len(result.Types))
	for _, t := range result.Types {
		line := "  " + t.Name
		if t.Abstract {
			line += " (abstract)"
		}
		if len(t.Extends) > 0 {
			line += " extends " + strings.Join(t.Extends, ", ")
		}
		fmt.Fprintln(w, line)
		if len(t.Attributes) > 0 {
			fmt.Fprintf(w, "    attributes: %s\n", strings.Join(t.Attributes, ", "))
		}
		if len(t.Contains) > 0 {
			fmt.Fprintf(w, "    contains: %s\n", strings.Join(t.Contains, ", "))
		}
	}
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Unreadable metamodels are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
