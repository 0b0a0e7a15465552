package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"agroprices/internal/config"
	apperrors "agroprices/internal/errors"
	"agroprices/internal/files"
	"agroprices/pkg/contracts/domain"
)

// Checkpointer records that a labelled unit of work has been persisted
type Checkpointer interface {
	RecordDone(year int, region, product, subtype string) error
}

// SeriesResult describes what happened to one yearly workbook
type SeriesResult struct {
	Path     string
	Existing int
	Incoming int
	Stored   int
	Dropped  int
}

// PersistResult reports both workbooks written by Persist
type PersistResult struct {
	Wholesale SeriesResult
	Retail    SeriesResult
}

// Store merges normalized price records into the yearly workbooks of one
// output directory and checkpoints each unit once both are written.
type Store struct {
	paths    *config.Paths
	files    *files.Manager
	registry Checkpointer
	logger   *slog.Logger
}

// NewStore creates a store rooted at paths.OutputDir
func NewStore(paths *config.Paths, registry Checkpointer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		paths:    paths,
		files:    files.NewManager(logger),
		registry: registry,
		logger:   logger.With(slog.String("component", "exporter")),
	}
}

// Persist writes the wholesale workbook, then the retail workbook, then the
// checkpoint. The first failure aborts the sequence, so a unit is only ever
// marked done after both of its series are on disk. A wholesale file written
// before a later failure is left in place; re-running merges over it.
func (s *Store) Persist(ctx context.Context, wholesale, retail []domain.PriceRecord, labels domain.Labels) (*PersistResult, error) {
	if err := s.files.EnsureDirectory(s.paths.OutputDir); err != nil {
		return nil, apperrors.NewStorageError("failed to prepare output directory", err).
			WithContext("path", s.paths.OutputDir)
	}

	result := &PersistResult{}
	var err error

	result.Wholesale, err = s.saveSeries(ctx, s.paths.WholesaleWorkbook(labels.Year), wholesale)
	if err != nil {
		return nil, fmt.Errorf("wholesale series: %w", err)
	}

	result.Retail, err = s.saveSeries(ctx, s.paths.RetailWorkbook(labels.Year), retail)
	if err != nil {
		return nil, fmt.Errorf("retail series: %w", err)
	}

	if err := s.registry.RecordDone(labels.Year, labels.Region, labels.Product, labels.Subtype); err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}

	s.logger.InfoContext(ctx, "Price records persisted",
		slog.Int("year", labels.Year),
		slog.String("region", labels.Region),
		slog.String("product", labels.Product),
		slog.String("subtype", labels.Subtype),
		slog.Int("wholesale_stored", result.Wholesale.Stored),
		slog.Int("retail_stored", result.Retail.Stored))

	return result, nil
}

func (s *Store) saveSeries(ctx context.Context, path string, records []domain.PriceRecord) (SeriesResult, error) {
	result := SeriesResult{Path: path, Incoming: len(records)}

	exists, err := s.files.Exists(path)
	if err != nil {
		return result, apperrors.NewStorageError("failed to check workbook", err).WithContext("path", path)
	}

	merged := records
	if exists {
		existing, err := ReadWorkbook(path)
		if err != nil {
			return result, err
		}
		result.Existing = len(existing)
		merged, result.Dropped = MergeRecords(existing, records)
	}

	if err := s.files.WriteAtomic(path, func(w io.Writer) error {
		return WriteWorkbook(w, merged)
	}); err != nil {
		return result, apperrors.NewStorageError("failed to write workbook", err).WithContext("path", path)
	}
	result.Stored = len(merged)

	s.logger.DebugContext(ctx, "Workbook written",
		slog.String("path", path),
		slog.Int("existing", result.Existing),
		slog.Int("incoming", result.Incoming),
		slog.Int("stored", result.Stored),
		slog.Int("dropped", result.Dropped))

	return result, nil
}
