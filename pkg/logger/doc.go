// Package logger builds the process-wide slog logger: text output in
// development, JSON in production, optionally written to a size-rotated file.
package logger
