package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"agroprices/internal/config"
	"agroprices/internal/dataprocessing"
	"agroprices/internal/infrastructure"
	"agroprices/internal/services"
	"agroprices/internal/validation"
	"agroprices/pkg/contracts"
	"agroprices/pkg/contracts/domain"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	configFile string
	input      string
	sheet      string
	comma      string
	outputDir  string
	labels     domain.Labels
	force      bool
	check      bool
	status     bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "%s %s\n\nUsage: ingest [flags]\n", config.AppName, config.AppVersion)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configFile, "config", "", "config file (defaults to config.yaml or configs/config.yaml when present)")
	fs.StringVar(&opts.input, "in", "", "raw price table to ingest (.xlsx or .csv)")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet of an .xlsx table (defaults to the first sheet)")
	fs.StringVar(&opts.comma, "comma", ",", "field delimiter of a .csv table")
	fs.StringVar(&opts.outputDir, "out", "", "output directory (overrides paths.output_dir)")
	fs.IntVar(&opts.labels.Year, "year", 0, "year the table belongs to")
	fs.StringVar(&opts.labels.Region, "region", "", "region label")
	fs.StringVar(&opts.labels.Product, "product", "", "product label")
	fs.StringVar(&opts.labels.Subtype, "subtype", "", "product subtype label")
	fs.BoolVar(&opts.force, "force", false, "ingest even if the unit is already checkpointed")
	fs.BoolVar(&opts.check, "check", false, "report whether the unit is already processed and exit")
	fs.BoolVar(&opts.status, "status", false, "list every checkpointed unit and exit")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if utf8.RuneCountInString(opts.comma) != 1 {
		return nil, fmt.Errorf("-comma must be a single character, got %q", opts.comma)
	}
	if opts.status || opts.version {
		return opts, nil
	}
	if opts.labels.Year == 0 || opts.labels.Region == "" || opts.labels.Product == "" {
		return nil, errors.New("-year, -region and -product are required")
	}
	if !opts.check && opts.input == "" {
		return nil, errors.New("-in is required")
	}
	return opts, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.outputDir != "" {
		cfg.Paths.OutputDir = opts.outputDir
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "ingest: failed to load config: %v\n", err)
		return exitFailure
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureTraceID(context.Background())
	logger = infrastructure.WithComponent(logger, "ingest")

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return exitFailure
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreateIngestMetrics(providers.Meter)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create metrics", slog.String("error", err.Error()))
		return exitFailure
	}

	paths := cfg.OutputPaths()
	service, err := services.NewIngestService(paths,
		services.WithLogger(logger),
		services.WithTracer(providers.Tracer),
		services.WithMetrics(metrics),
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create ingest service", slog.String("error", err.Error()))
		return exitFailure
	}

	code := execute(ctx, opts, service, paths, logger, stdout, stderr)

	if cfg.Telemetry.MetricsFile != "" {
		if err := providers.WriteMetricsFile(cfg.Telemetry.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics file", slog.String("error", err.Error()))
		}
	}
	return code
}

// fail logs err and echoes it to stderr, so a run never exits 1 silently
func fail(ctx context.Context, logger *slog.Logger, stderr io.Writer, msg string, err error) int {
	logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
	fmt.Fprintf(stderr, "ingest: %s: %v\n", strings.ToLower(msg), err)
	return exitFailure
}

func execute(ctx context.Context, opts *options, service *services.IngestService, paths *config.Paths, logger *slog.Logger, stdout, stderr io.Writer) int {
	switch {
	case opts.status:
		return printStatus(ctx, service, logger, stdout, stderr)

	case opts.check:
		done, err := service.IsProcessed(ctx, opts.labels)
		if err != nil {
			return fail(ctx, logger, stderr, "Failed to check unit", err)
		}
		state := "pending"
		if done {
			state = "processed"
		}
		fmt.Fprintf(stdout, "%d %s %s %s: %s\n",
			opts.labels.Year, opts.labels.Region, opts.labels.Product, opts.labels.Subtype, state)
		return exitOK
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateTableFile(opts.input); err != nil {
		return fail(ctx, logger, stderr, "Invalid input table", err)
	}
	if err := validator.ValidateOutputDirectory(paths.OutputDir); err != nil {
		return fail(ctx, logger, stderr, "Invalid output directory", err)
	}

	comma, _ := utf8.DecodeRuneInString(opts.comma)
	loadOpts := dataprocessing.LoadOptions{Sheet: opts.sheet, Comma: comma}

	logger.InfoContext(ctx, "Starting ingest",
		slog.String("input", opts.input),
		slog.String("output_dir", paths.OutputDir),
		slog.Bool("force", opts.force))

	result, err := service.IngestFile(ctx, opts.input, loadOpts, opts.labels, opts.force)
	if err != nil {
		return fail(ctx, logger, stderr, "Ingest failed", err)
	}

	if result.Skipped {
		fmt.Fprintf(stdout, "skipped: %d %s %s %s already processed\n",
			opts.labels.Year, opts.labels.Region, opts.labels.Product, opts.labels.Subtype)
		return exitOK
	}

	p := result.Persist
	fmt.Fprintf(stdout, "wholesale: %d stored (%d new, %d replaced) -> %s\n",
		p.Wholesale.Stored, p.Wholesale.Incoming, p.Wholesale.Dropped, p.Wholesale.Path)
	fmt.Fprintf(stdout, "retail: %d stored (%d new, %d replaced) -> %s\n",
		p.Retail.Stored, p.Retail.Incoming, p.Retail.Dropped, p.Retail.Path)
	return exitOK
}

func printStatus(ctx context.Context, service *services.IngestService, logger *slog.Logger, stdout, stderr io.Writer) int {
	entries, err := service.Status(ctx)
	if err != nil {
		return fail(ctx, logger, stderr, "Failed to read registry", err)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tREGION\tPRODUCT\tSUBTYPE\tPROCESSED\tLAST UPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			e.Year, e.Region, e.Product, e.Subtype, e.Processed, e.LastUpdated)
	}
	if err := tw.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}
