// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package. It configures the process-wide
// JSON handler and carries request-scoped loggers through context.Context so
// that stores and services log with the trace ID of the request they serve.
package logger
