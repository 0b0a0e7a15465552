package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"agroprices/internal/config"
	apperrors "agroprices/internal/errors"
	"agroprices/internal/files"
)

// Entry is the state recorded for one (year, region, product, subtype).
type Entry struct {
	Processed   bool   `json:"processed"`
	LastUpdated string `json:"last_updated"`
}

// UnmarshalJSON also accepts the Spanish keys of registries written by the
// earlier tooling. Canonical keys win when both are present.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Processed         *bool   `json:"processed"`
		LastUpdated       *string `json:"last_updated"`
		LegacyProcessed   *bool   `json:"procesado"`
		LegacyLastUpdated *string `json:"ultima_actualizacion"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Entry{}
	switch {
	case raw.Processed != nil:
		e.Processed = *raw.Processed
	case raw.LegacyProcessed != nil:
		e.Processed = *raw.LegacyProcessed
	}
	switch {
	case raw.LastUpdated != nil:
		e.LastUpdated = *raw.LastUpdated
	case raw.LegacyLastUpdated != nil:
		e.LastUpdated = *raw.LegacyLastUpdated
	}
	return nil
}

// Tree is the on-disk layout: year -> region -> product -> subtype -> Entry.
// Years are string keys because JSON object keys are strings.
type Tree map[string]map[string]map[string]map[string]Entry

// EntryRef is a flattened registry entry
type EntryRef struct {
	Year    string
	Region  string
	Product string
	Subtype string
	Entry
}

// Registry persists which units of work have been stored. Every update
// rewrites the whole file; concurrent writers must be serialized by the caller.
type Registry struct {
	path   string
	files  *files.Manager
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithClock replaces the time source used for last_updated
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLogger sets the logger used by the registry
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a registry backed by the JSON file at path. The file is not
// touched until the first call.
func New(path string, opts ...Option) *Registry {
	r := &Registry{
		path:   path,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "checkpoint"))
	r.files = files.NewManager(r.logger)
	return r
}

// Load reads the registry. An absent file is an empty tree; a file that
// exists but does not decode is a CORRUPT error and is never treated as empty.
func (r *Registry) Load() (Tree, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Tree{}, nil
		}
		return nil, apperrors.NewStorageError("failed to read registry", err).WithContext("path", r.path)
	}

	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, apperrors.NewCorruptError(r.path, err)
	}
	if tree == nil {
		tree = Tree{}
	}
	return tree, nil
}

// IsDone reports whether the unit has been recorded as processed
func (r *Registry) IsDone(year int, region, product, subtype string) (bool, error) {
	tree, err := r.Load()
	if err != nil {
		return false, err
	}
	entry, ok := tree[strconv.Itoa(year)][region][product][subtype]
	return ok && entry.Processed, nil
}

// RecordDone marks the unit as processed at the current time, creating any
// missing levels and overwriting a previous entry.
func (r *Registry) RecordDone(year int, region, product, subtype string) error {
	tree, err := r.Load()
	if err != nil {
		return err
	}

	yearKey := strconv.Itoa(year)
	if tree[yearKey] == nil {
		tree[yearKey] = make(map[string]map[string]map[string]Entry)
	}
	if tree[yearKey][region] == nil {
		tree[yearKey][region] = make(map[string]map[string]Entry)
	}
	if tree[yearKey][region][product] == nil {
		tree[yearKey][region][product] = make(map[string]Entry)
	}
	entry := Entry{
		Processed:   true,
		LastUpdated: r.now().Format(config.RegistryTimestampLayout),
	}
	tree[yearKey][region][product][subtype] = entry

	if err := r.save(tree); err != nil {
		return err
	}

	r.logger.Debug("Checkpoint recorded",
		slog.Int("year", year),
		slog.String("region", region),
		slog.String("product", product),
		slog.String("subtype", subtype),
		slog.String("last_updated", entry.LastUpdated))
	return nil
}

// Entries lists every recorded unit sorted by year, region, product and subtype
func (r *Registry) Entries() ([]EntryRef, error) {
	tree, err := r.Load()
	if err != nil {
		return nil, err
	}

	var refs []EntryRef
	for year, regions := range tree {
		for region, products := range regions {
			for product, subtypes := range products {
				for subtype, entry := range subtypes {
					refs = append(refs, EntryRef{
						Year:    year,
						Region:  region,
						Product: product,
						Subtype: subtype,
						Entry:   entry,
					})
				}
			}
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return a.Subtype < b.Subtype
	})
	return refs, nil
}

func (r *Registry) save(tree Tree) error {
	if err := r.files.EnsureDirectory(filepath.Dir(r.path)); err != nil {
		return apperrors.NewStorageError("failed to prepare registry directory", err)
	}

	err := r.files.WriteAtomic(r.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("failed to encode registry: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewStorageError("failed to write registry", err).WithContext("path", r.path)
	}
	return nil
}
