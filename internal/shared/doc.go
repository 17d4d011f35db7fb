// Package shared holds helpers used by tests across the crawler packages.
//
// testutil provides a capturing slog handler so tests can assert on the
// records a component logs, including attributes such as component and
// outcome attached through Logger.With.
package shared
