package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Limit    int
	Sessions bool
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Examples exchange.Document      `json:"examples"`
	Sessions []store.SessionSummary `json:"sessions,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored examples",
		Long: `Print the examples persisted in a database, oldest first.

Text output prints one line per example; JSON output carries the exchange
document.

Examples:
  exemplar show --db examples.db
  exemplar show --db examples.db --limit 10 --sessions
  exemplar show --db examples.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of examples (0 = all)")
	cmd.Flags().BoolVar(&opts.Sessions, "sessions", false, "also list recording sessions")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	var result ShowResult
	result.Examples, err = st.ReadExamples(ctx, opts.Limit)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to read examples", err)
	}
	if opts.Sessions {
		result.Sessions, err = st.ReadSessions(ctx)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to read sessions", err)
		}
	}

	if opts.Format == "json" {
		return out.Success(result)
	}

	if len(result.Examples) == 0 {
		fmt.Fprintln(out.Writer, "No examples found in database.")
	}
	for _, ex := range result.Examples {
		fmt.Fprintln(out.Writer, ex.Summary())
	}
	for _, sess := range result.Sessions {
		fmt.Fprintf(out.Writer, "session %s target=%q recorder=%s examples=%d\n",
			sess.ID, sess.Target, sess.RecorderVersion, sess.Examples)
	}
	return nil
}

// openExisting opens a database that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", path, err)
	}
	return store.Open(path)
}
