// Package shared holds helpers used across packages that belong to no single
// layer. The testutil subpackage provides raw table fixtures and a log
// capturing slog handler for tests.
package shared
