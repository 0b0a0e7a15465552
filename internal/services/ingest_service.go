package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"agroprices/internal/checkpoint"
	"agroprices/internal/config"
	"agroprices/internal/dataprocessing"
	"agroprices/internal/exporter"
	"agroprices/internal/infrastructure"
	"agroprices/internal/validation"
	"agroprices/pkg/contracts/domain"
)

// IngestResult summarizes one unit of work
type IngestResult struct {
	Labels     domain.Labels
	Skipped    bool
	Normalized int
	Fallbacks  int
	Persist    *exporter.PersistResult
	Duration   time.Duration
}

// IngestService normalizes scraped tables and persists them into one output
// directory, skipping units that are already checkpointed.
type IngestService struct {
	paths     *config.Paths
	registry  *checkpoint.Registry
	store     *exporter.Store
	validator *validation.LabelsValidator
	tracer    trace.Tracer
	metrics   *infrastructure.IngestMetrics
	logger    *slog.Logger

	registryOpts []checkpoint.Option
}

// Option configures an IngestService
type Option func(*IngestService)

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *IngestService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for ingest spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *IngestService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the instruments updated by the service
func WithMetrics(metrics *infrastructure.IngestMetrics) Option {
	return func(s *IngestService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithRegistryOptions passes options through to the checkpoint registry
func WithRegistryOptions(opts ...checkpoint.Option) Option {
	return func(s *IngestService) {
		s.registryOpts = append(s.registryOpts, opts...)
	}
}

// NewIngestService creates an ingest service writing under paths.
// Without WithTracer and WithMetrics the global OpenTelemetry providers are used.
func NewIngestService(paths *config.Paths, opts ...Option) (*IngestService, error) {
	if paths == nil {
		return nil, fmt.Errorf("paths cannot be nil")
	}

	s := &IngestService{
		paths:     paths,
		validator: validation.NewLabelsValidator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tracer == nil {
		s.tracer = otel.Tracer(infrastructure.MeterName)
	}
	if s.metrics == nil {
		metrics, err := infrastructure.CreateIngestMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
		}
		s.metrics = metrics
	}

	s.logger = infrastructure.WithComponent(s.logger, "ingest_service")
	s.registry = checkpoint.New(paths.RegistryFile, append([]checkpoint.Option{checkpoint.WithLogger(s.logger)}, s.registryOpts...)...)
	s.store = exporter.NewStore(paths, s.registry, s.logger)

	paths.LogPathResolution(s.logger)
	return s, nil
}

// IsProcessed reports whether the unit identified by labels is checkpointed
func (s *IngestService) IsProcessed(ctx context.Context, labels domain.Labels) (bool, error) {
	if err := s.validator.Validate(labels); err != nil {
		return false, err
	}
	return s.registry.IsDone(labels.Year, labels.Region, labels.Product, labels.Subtype)
}

// Status lists every checkpointed unit
func (s *IngestService) Status(ctx context.Context) ([]checkpoint.EntryRef, error) {
	return s.registry.Entries()
}

// IngestFile loads a raw table from disk and ingests it. The file is not read
// when the unit is already checkpointed and force is false.
func (s *IngestService) IngestFile(ctx context.Context, path string, opts dataprocessing.LoadOptions, labels domain.Labels, force bool) (*IngestResult, error) {
	if !force {
		done, err := s.IsProcessed(ctx, labels)
		if err != nil {
			return nil, err
		}
		if done {
			return s.skip(ctx, labels), nil
		}
	}

	table, err := dataprocessing.LoadRawTable(path, opts)
	if err != nil {
		s.metrics.UnitsFailed.Add(ctx, 1, metric.WithAttributes(labelAttributes(labels)...))
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s.Ingest(ctx, table, labels, force)
}

// Ingest splits table into its wholesale and retail series and persists both.
// Units already checkpointed are skipped unless force is set.
func (s *IngestService) Ingest(ctx context.Context, table domain.RawTable, labels domain.Labels, force bool) (result *IngestResult, err error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	attrs := labelAttributes(labels)

	ctx, span := s.tracer.Start(ctx, "ingest.unit", trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	defer func() {
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.metrics.UnitsFailed.Add(ctx, 1, metric.WithAttributes(attrs...))
			s.logger.ErrorContext(ctx, "Ingest failed",
				slog.Int("year", labels.Year),
				slog.String("region", labels.Region),
				slog.String("product", labels.Product),
				slog.String("subtype", labels.Subtype),
				slog.String("error", err.Error()))
		}
	}()

	if err := s.validator.Validate(labels); err != nil {
		return nil, err
	}

	if !force {
		done, err := s.registry.IsDone(labels.Year, labels.Region, labels.Product, labels.Subtype)
		if err != nil {
			return nil, err
		}
		if done {
			span.SetAttributes(attribute.Bool("ingest.skipped", true))
			return s.skip(ctx, labels), nil
		}
	}

	wholesale, retail, err := dataprocessing.NormalizeTable(table, labels)
	if err != nil {
		return nil, err
	}

	result = &IngestResult{
		Labels:     labels,
		Normalized: len(wholesale),
		Fallbacks:  dataprocessing.CountFallbacks(wholesale) + dataprocessing.CountFallbacks(retail),
	}
	s.logger.DebugContext(ctx, "Table normalized",
		slog.Int("rows", result.Normalized),
		slog.Int("cell_fallbacks", result.Fallbacks))

	persistCtx, persistSpan := s.tracer.Start(ctx, "ingest.persist")
	result.Persist, err = s.store.Persist(persistCtx, wholesale, retail, labels)
	if err != nil {
		infrastructure.RecordError(persistCtx, err)
		persistSpan.End()
		return nil, err
	}
	persistSpan.End()

	result.Duration = time.Since(start)
	s.recordSuccess(ctx, result, attrs)

	s.logger.InfoContext(ctx, "Unit ingested",
		slog.Int("year", labels.Year),
		slog.String("region", labels.Region),
		slog.String("product", labels.Product),
		slog.String("subtype", labels.Subtype),
		slog.Int("records_per_series", result.Normalized),
		slog.Int("cell_fallbacks", result.Fallbacks),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func (s *IngestService) skip(ctx context.Context, labels domain.Labels) *IngestResult {
	s.metrics.UnitsSkipped.Add(ctx, 1, metric.WithAttributes(labelAttributes(labels)...))
	s.logger.InfoContext(ctx, "Unit already processed, skipping",
		slog.Int("year", labels.Year),
		slog.String("region", labels.Region),
		slog.String("product", labels.Product),
		slog.String("subtype", labels.Subtype))
	return &IngestResult{Labels: labels, Skipped: true}
}

func (s *IngestService) recordSuccess(ctx context.Context, result *IngestResult, attrs []attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	p := result.Persist

	s.metrics.UnitsProcessed.Add(ctx, 1, opt)
	s.metrics.RecordsNormalized.Add(ctx, int64(2*result.Normalized), opt)
	s.metrics.RecordsStored.Add(ctx, int64(p.Wholesale.Stored+p.Retail.Stored), opt)
	s.metrics.DuplicatesDropped.Add(ctx, int64(p.Wholesale.Dropped+p.Retail.Dropped), opt)
	s.metrics.CellFallbacks.Add(ctx, int64(result.Fallbacks), opt)
	s.metrics.IngestDuration.Record(ctx, result.Duration.Seconds(), opt)
}

func labelAttributes(labels domain.Labels) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("ingest.year", labels.Year),
		attribute.String("ingest.region", labels.Region),
		attribute.String("ingest.product", labels.Product),
		attribute.String("ingest.subtype", labels.Subtype),
	}
}
