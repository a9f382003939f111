package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyTool      = "tool"
	KeyTicket    = "ticket"
	KeyRequestID = "request_id"
	KeyRole      = "role"
	KeyScope     = "scope"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyHost      = "host"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches IPv6 addresses for sanitization, including the
// bracketed form used in URLs ([2001:db8::1]).
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the MCP tool name.
func Tool(name string) slog.Attr {
	return slog.String(KeyTool, name)
}

// Ticket returns a slog attribute for a ticket key.
func Ticket(key string) slog.Attr {
	return slog.String(KeyTicket, key)
}

// RequestID returns a slog attribute for an agent request ID.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Role returns a slog attribute for a directory role name or ID.
func Role(role string) slog.Attr {
	return slog.String(KeyRole, role)
}

// Scope returns a slog attribute for a directory scope.
func Scope(scope string) slog.Attr {
	return slog.String(KeyScope, scope)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with IP addresses redacted.
// Use this when logging errors that may embed hostnames or IPs from Graph API
// responses, which could leak network topology information.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// Host returns a slog attribute for a host with IP addresses sanitized.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// AnonymizeUPN returns a hashed representation of a user principal name for
// logging purposes. This allows correlation of log entries without exposing PII.
func AnonymizeUPN(upn string) string {
	if upn == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(upn)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized UPN.
//
// Usage:
//
//	logger.Info("lockout check complete", logging.UserHash(upn))
func UserHash(upn string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeUPN(upn))
}

// SanitizeHost returns a sanitized version of the host for logging purposes.
// IP addresses (IPv4 and IPv6) are redacted while DNS names are preserved.
//
// Examples:
//   - "https://192.168.1.100:443" -> "https://<redacted-ip>:443"
//   - "https://graph.microsoft.com" -> "https://graph.microsoft.com"
//   - "" -> "<empty>"
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}

	redactIPs := func(s string) string {
		result := ipv4Regex.ReplaceAllString(s, "<redacted-ip>")
		result = ipv6Regex.ReplaceAllString(result, "<redacted-ip>")
		return result
	}

	if !strings.Contains(host, "://") {
		return redactIPs(host)
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return redactIPs(host)
	}

	if ipv4Regex.MatchString(parsed.Host) || ipv6Regex.MatchString(parsed.Host) {
		parsed.Host = redactIPs(parsed.Host)
		return parsed.String()
	}

	return host
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes (like JWT headers) can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractDomain extracts the domain part from a UPN or email address.
// Useful for lower-cardinality logging where the full UPN would create
// too many unique values.
func ExtractDomain(upn string) string {
	parts := strings.Split(upn, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Domain returns a slog attribute for the UPN domain (lower cardinality than the full UPN).
func Domain(upn string) slog.Attr {
	return slog.String("user_domain", ExtractDomain(upn))
}
