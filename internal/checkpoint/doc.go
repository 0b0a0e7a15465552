// Package checkpoint keeps the registry of already persisted units of work,
// a JSON file nested as year -> region -> product -> subtype, so that a
// scraping run can skip combinations stored by an earlier run.
package checkpoint
