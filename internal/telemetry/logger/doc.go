// Package logger configures structured logging.
//
//   - logger.go: slog handler construction and the process-wide level
//   - context.go: request ID propagation into log records
//   - redact.go: masking of credentials, PINs and key material
//
// Components receive a *slog.Logger. Records logged with a context that
// carries a request ID get a request_id attribute automatically.
package logger
