// Package logging provides structured logging utilities for the mcp-entra application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (UPN anonymization, credential masking)
//   - Host/URL sanitization for security
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "entra_user_lockout")
//	logger.Info("summarizing sign-ins",
//	    logging.UserHash(upn),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - User principal names are hashed to prevent PII leakage while allowing correlation
//   - Graph API error text has IP addresses redacted to prevent topology leakage
//   - Access tokens are never logged beyond a length indicator
package logging
