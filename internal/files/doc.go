// Package files provides the file system primitives used by the output
// workbooks and the checkpoint registry.
//
// Every whole-file rewrite goes through Manager.WriteAtomic, which writes a
// temporary sibling file, syncs it and renames it over the target:
//
//	m := files.NewManager(logger)
//	err := m.WriteAtomic(path, func(w io.Writer) error {
//	    _, err := w.Write(data)
//	    return err
//	})
//
// Exists separates "absent" from "cannot be inspected" so callers can treat
// a missing file as empty state without masking permission problems.
package files
