package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Output   string
	Limit    int
}

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Output   string `json:"output"`
	Examples int    `json:"examples"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored examples as an exchange document",
		Long: `Write the examples persisted in a database to a file as an indented
exchange document, oldest first.

Examples:
  exemplar export --db examples.db --out examples.json
  exemplar export --db examples.db --out first10.json --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of examples (0 = all)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	doc, err := st.ReadExamples(cmd.Context(), opts.Limit)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to read examples", err)
	}
	if err := writeDocument(opts.Output, doc); err != nil {
		return out.Fail(ExitCommandError, ErrCodeWrite, "failed to write output", err)
	}

	if opts.Format == "json" {
		return out.Success(ExportResult{Output: opts.Output, Examples: len(doc)})
	}
	fmt.Fprintf(out.Writer, "Exported %d examples to %s\n", len(doc), opts.Output)
	return nil
}
