// Package exporter persists normalized price records into yearly workbooks.
//
// Each output directory holds one wholesale and one retail workbook per
// year. Store.Persist merges new records into them, keeping the most recent
// copy of every observation, and then records a checkpoint:
//
//	store := exporter.NewStore(paths, checkpoint.New(paths.RegistryFile), logger)
//	result, err := store.Persist(ctx, wholesale, retail, labels)
//
// Workbooks are replaced atomically. A workbook that exists but cannot be
// decoded is reported as CORRUPT and left untouched.
package exporter
