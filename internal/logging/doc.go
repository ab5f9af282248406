// Package logging configures slog output for phonogram and provides the
// shared attribute helpers and field names used across the pipeline.
package logging
