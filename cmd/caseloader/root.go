package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"go.worksafetyindex.dev/caseloader"
)

type rootFlags struct {
	envFiles    []string
	file        string
	table       string
	batchSize   int
	storeURL    string
	throttle    time.Duration
	logLevel    string
	pretty      bool
	concurrency int
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "caseloader",
		Short: "Load an OSHA ITA case detail export into a table",
		Long: `caseloader reads an ITA case detail export (CSV in ISO-8859-1, or .xls),
normalizes column names, timestamps and ".00" suffixes, and inserts the rows
into the destination table in chunks, one request at a time.

Settings come from the environment (a .env file in the working directory is
loaded first) and can be overridden with flags:

  SOURCE_FILE           --file
  TABLE_NAME            --table        (default case_details)
  CHUNK_SIZE            --batch-size   (default 1000)
  SUPABASE_URL          --store-url
  SUPABASE_SERVICE_KEY  (environment only)
  THROTTLE              --throttle     (default 500ms)
  LOG_LEVEL             --log-level    (default info)

A chunk that fails to insert is logged and skipped. The command exits 0 once
the last chunk has been attempted; it fails only when the configuration is
invalid or the source file cannot be read.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.StringSliceVar(&f.envFiles, "env-file", nil, "env files to load instead of ./.env")
	fs.StringVar(&f.file, "file", "", "source file path or gs://bucket/object")
	fs.StringVar(&f.table, "table", "", "destination table name")
	fs.IntVar(&f.batchSize, "batch-size", 0, "records per insert request")
	fs.StringVar(&f.storeURL, "store-url", "", "store URL (https://, postgres:// or bigquery://project/dataset)")
	fs.DurationVar(&f.throttle, "throttle", 0, "pause after every chunk")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&f.pretty, "pretty", false, "human friendly logs")
	fs.IntVar(&f.concurrency, "concurrency", 1, "goroutines used to normalize records")

	return cmd
}

func run(cmd *cobra.Command, f *rootFlags) error {
	cfg, err := caseloader.LoadConfig(f.envFiles...)
	if err != nil {
		return err
	}

	applyFlags(cmd, f, &cfg)

	opts := []caseloader.Option{
		caseloader.WithLogWriter(cmd.OutOrStdout()),
		caseloader.WithConcurrency(f.concurrency),
	}
	if f.pretty {
		opts = append(opts, caseloader.WithPrettyLogging())
	}

	ctx := context.Background()

	loader, err := caseloader.New(ctx, cfg, opts...)
	if err != nil {
		return xerrors.Errorf("failed to build loader: %w", err)
	}
	defer loader.Close()

	if _, err := loader.Run(ctx); err != nil {
		return err
	}

	return nil
}

func applyFlags(cmd *cobra.Command, f *rootFlags, cfg *caseloader.Config) {
	fs := cmd.Flags()

	if fs.Changed("file") {
		cfg.SourceFile = f.file
	}
	if fs.Changed("table") {
		cfg.Table = f.table
	}
	if fs.Changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if fs.Changed("store-url") {
		cfg.StoreURL = f.storeURL
	}
	if fs.Changed("throttle") {
		cfg.Throttle = f.throttle
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}
