package tools

import (
	"fmt"
	"strings"

	"github.com/gsvibhav/mcp-entra/internal/server"
)

// PIM guardrails. Every privileged assignment request passes these checks
// before any Graph identifier is resolved, so a rejected request never
// touches the directory.

// ValidateDuration checks the requested eligibility window against the
// configured limits.
func ValidateDuration(cfg *server.Config, durationMinutes int) error {
	if durationMinutes < cfg.MinDurationMinutes || durationMinutes > cfg.MaxDurationMinutes {
		return fmt.Errorf("duration must be between %d and %d minutes",
			cfg.MinDurationMinutes, cfg.MaxDurationMinutes)
	}
	return nil
}

// ValidateScope checks the directory scope against the allowlist.
func ValidateScope(cfg *server.Config, scope string) error {
	for _, allowed := range cfg.ScopeAllowlist {
		if scope == allowed {
			return nil
		}
	}
	return fmt.Errorf("scope %q not allowed. Update PIM_SCOPE_ALLOWLIST", scope)
}

// ValidateTicket checks that the justification carries a ticket reference
// when one is required.
func ValidateTicket(cfg *server.Config, justification string, requireTicket bool) error {
	if !requireTicket {
		return nil
	}
	if !HasTicketReference(justification, cfg.TicketKeywords) {
		return fmt.Errorf("justification must include a ticket reference (e.g., OPS-1234) when require_ticket=true")
	}
	return nil
}

// HasTicketReference reports whether the justification contains any of the
// configured ticket keywords. Matching is case-insensitive.
func HasTicketReference(justification string, keywords []string) bool {
	lowered := strings.ToLower(justification)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// ExtractTicketReference returns the first whitespace-separated token of
// the justification that contains a ticket keyword, or empty string.
func ExtractTicketReference(justification string, keywords []string) string {
	for _, token := range strings.Fields(justification) {
		lowered := strings.ToLower(token)
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				return strings.Trim(token, ".,;:()")
			}
		}
	}
	return ""
}
