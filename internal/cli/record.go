package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/exemplar/internal/config"
	"github.com/roach88/exemplar/internal/eventlog"
	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/recorder"
	"github.com/roach88/exemplar/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	ConfigFile     string
	Path           string
	Database       string
	Limit          int
	MaxPerFunction int
	Exclude        []string
	Where          string
	Output         string

	// Environ replaces the process environment for config overrides when non-nil.
	Environ map[string]string
}

// RecordResult is the JSON payload of the record command.
type RecordResult struct {
	SessionID   string            `json:"session_id"`
	Target      string            `json:"target"`
	Stats       recorder.Stats    `json:"stats"`
	Examples    exchange.Document `json:"examples"`
	FieldErrors []string          `json:"field_errors,omitempty"`
	Output      string            `json:"output,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	return newRecordCommand(&RecordOptions{RootOptions: rootOpts})
}

func newRecordCommand(opts *RecordOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <events.yaml>",
		Short: "Record examples from an event log",
		Long: `Replay a recorded stream of entry and exit events through one recording
session and print the resulting exchange document.

Settings are read from the config file, then EXEMPLAR_* environment variables,
then flags; later sources win.

Exit codes:
  0 - Document written
  1 - Event stream rejected
  2 - Command error (bad config, unreadable log, database errors)

Examples:
  exemplar record --path app/models events.yaml
  exemplar record --config exemplar.cue --db examples.db events.yaml
  exemplar record --path app/models --exclude '**/*_test.go' --out examples.json events.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to CUE config file")
	cmd.Flags().StringVar(&opts.Path, "path", "", "record functions defined under paths containing this substring")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist accepted examples to this SQLite database")
	cmd.Flags().IntVar(&opts.Limit, "limit", recorder.DefaultLimit, "maximum number of examples to publish")
	cmd.Flags().IntVar(&opts.MaxPerFunction, "max-per-function", 0, "maximum examples kept per function (0 = unlimited)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "glob patterns of definition paths to ignore")
	cmd.Flags().StringVar(&opts.Where, "where", "", "expression events must satisfy (fields: type, function, path, line, depth)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "write the exchange document to this file")

	return cmd
}

// applyFlags overrides cfg with the flags set on the command line.
func (o *RecordOptions) applyFlags(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("path") {
			cfg.Path = o.Path
		}
		if flags.Changed("db") {
			cfg.DB = o.Database
		}
		if flags.Changed("limit") {
			cfg.Limit = o.Limit
		}
		if flags.Changed("max-per-function") {
			cfg.MaxPerFunction = o.MaxPerFunction
		}
		if flags.Changed("exclude") {
			cfg.Exclude = o.Exclude
		}
		if flags.Changed("where") {
			cfg.Where = o.Where
		}
	}
}

func runRecord(opts *RecordOptions, cmd *cobra.Command, logPath string) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	loader := config.Loader{Environ: opts.Environ}
	cfg, err := loader.LoadWith(opts.ConfigFile, opts.applyFlags(cmd))
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	f, err := cfg.Filter()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "invalid filter", err)
	}

	log, err := eventlog.LoadLog(logPath)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeEventLog, "failed to load event log", err)
	}
	out.VerboseLog("Loaded %d events from %s", len(log.Events), logPath)

	recOpts := []recorder.Option{
		recorder.WithFilter(f),
		recorder.WithMaxPerFunction(cfg.MaxPerFunction),
		recorder.WithLogger(logger),
	}
	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
		}
		defer st.Close()
		maxSeq, err := st.MaxSeq(ctx)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeDatabase, "failed to read database", err)
		}
		recOpts = append(recOpts,
			recorder.WithSink(st.Sink(ctx, cfg.Path)),
			recorder.WithClock(recorder.NewClockAt(uint64(maxSeq))),
		)
	}

	rec := recorder.New(cfg.Path, recOpts...)
	if err := rec.Record(func() error {
		return eventlog.Replay(log.Events, rec)
	}); err != nil {
		return out.Fail(ExitFailure, ErrCodeReplay, "replay failed", err)
	}

	stats := rec.Stats()
	doc, serr := rec.SerializedExamples(cfg.Limit)

	result := RecordResult{
		SessionID: rec.SessionID(),
		Target:    cfg.Path,
		Stats:     stats,
		Examples:  doc,
		Output:    opts.Output,
	}
	for _, fe := range exchange.FieldErrors(serr) {
		result.FieldErrors = append(result.FieldErrors, fe.Error())
	}

	if opts.Output != "" {
		if err := writeDocument(opts.Output, doc); err != nil {
			return out.Fail(ExitCommandError, ErrCodeWrite, "failed to write output", err)
		}
	}

	if opts.Format == "json" {
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		for _, msg := range result.FieldErrors {
			out.Warn("%s", msg)
		}
		out.VerboseLog("Session %s: %d accepted, %d duplicates, %d capped, %d filtered, %d dropped exits, %d orphaned, %d failures",
			result.SessionID, stats.Accepted, stats.Duplicates, stats.Capped, stats.Filtered,
			stats.DroppedExits, stats.Orphaned, stats.Failures)
		if opts.Output != "" {
			fmt.Fprintf(out.Writer, "Recorded %d examples to %s\n", len(doc), opts.Output)
		} else if err := doc.EncodeIndent(out.Writer, "  "); err != nil {
			return WrapExitError(ExitCommandError, "failed to write document", err)
		}
	}

	if stats.SinkErrors > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("failed to persist %d examples to %s", stats.SinkErrors, cfg.DB))
	}
	return nil
}

// writeDocument writes doc to path as indented JSON.
func writeDocument(path string, doc exchange.Document) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.EncodeIndent(file, "  "); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
