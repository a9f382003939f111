package graph

import (
	"sort"
	"time"
)

// Lockout status classifications.
const (
	// LockoutStatusOK means only successful sign-ins were observed.
	LockoutStatusOK = "ok"

	// LockoutStatusOKAfterFailures means failures occurred but the most
	// recent sign-in succeeded.
	LockoutStatusOKAfterFailures = "ok_after_failures"

	// LockoutStatusMixedSuccess means both outcomes occurred and the most
	// recent sign-in failed.
	LockoutStatusMixedSuccess = "mixed_success"

	// LockoutStatusBlocked means no successful sign-ins were observed.
	LockoutStatusBlocked = "blocked"
)

const (
	topAppCount    = 5
	topErrorCount  = 5
	maxPoliciesHit = 10
)

// CountEntry is a labeled occurrence count with deterministic ordering.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// ErrorEntry is a sign-in error code occurrence count.
type ErrorEntry struct {
	Code  int `json:"code"`
	Count int `json:"count"`
}

// LockoutSummary is the aggregated result of a user's recent sign-ins.
type LockoutSummary struct {
	UPN                     string       `json:"upn"`
	LookbackHours           int          `json:"lookback_hours"`
	InteractiveOnly         bool         `json:"interactive_only"`
	Status                  string       `json:"status"`
	LastFailureTime         string       `json:"last_failure_time,omitempty"`
	LastSuccessTime         string       `json:"last_success_time,omitempty"`
	SuccessCount            int          `json:"success_count"`
	FailureCount            int          `json:"failure_count"`
	AppsSuccessTop          []CountEntry `json:"apps_success_top"`
	AppsFailureTop          []CountEntry `json:"apps_failure_top"`
	ConditionalAccessStatus []CountEntry `json:"conditional_access_status"`
	TopErrors               []ErrorEntry `json:"top_errors"`
	PoliciesHit             []string     `json:"policies_hit"`
	Recommendation          string       `json:"recommendation"`
}

// SummarizeLockout classifies a user's recent sign-in events.
//
// A sign-in counts as a failure when its status error code is non-zero.
// Events with no createdDateTime still count toward totals but never
// advance the last-seen timestamps. When the latest success and failure
// share the same timestamp the summary classifies as mixed_success.
func SummarizeLockout(upn string, lookbackHours int, interactiveOnly bool, events []SignIn) *LockoutSummary {
	var (
		lastFailure, lastSuccess time.Time
		failureCodes             = map[int]int{}
		appsSuccess              = map[string]int{}
		appsFailure              = map[string]int{}
		caStatus                 = map[string]int{}
		policySet                = map[string]struct{}{}
	)

	for _, e := range events {
		app := e.AppDisplayName
		if app == "" {
			app = "Unknown"
		}
		if e.ConditionalAccessStatus != "" && e.ConditionalAccessStatus != "none" {
			caStatus[e.ConditionalAccessStatus]++
		}

		code := 0
		if e.Status != nil {
			code = e.Status.ErrorCode
		}
		if code != 0 {
			failureCodes[code]++
			appsFailure[app]++
			if !e.CreatedDateTime.IsZero() && e.CreatedDateTime.After(lastFailure) {
				lastFailure = e.CreatedDateTime
			}
		} else {
			appsSuccess[app]++
			if !e.CreatedDateTime.IsZero() && e.CreatedDateTime.After(lastSuccess) {
				lastSuccess = e.CreatedDateTime
			}
		}

		for _, p := range e.AppliedConditionalAccessPolicies {
			if p.DisplayName != "" {
				policySet[p.DisplayName] = struct{}{}
			}
		}
	}

	successCount := sumCounts(appsSuccess)
	failureCount := sumCounts(appsFailure)

	var status string
	switch {
	case failureCount == 0 && successCount > 0:
		status = LockoutStatusOK
	case successCount > 0 && failureCount > 0:
		if !lastSuccess.IsZero() && (lastFailure.IsZero() || lastSuccess.After(lastFailure)) {
			status = LockoutStatusOKAfterFailures
		} else {
			status = LockoutStatusMixedSuccess
		}
	default:
		status = LockoutStatusBlocked
	}

	recommendation := "Review app assignment/licensing or device/risk posture; see top_errors/apps_failure_top."
	if status == LockoutStatusOK || status == LockoutStatusOKAfterFailures {
		recommendation = "No action. Recent successes observed."
	}

	policies := make([]string, 0, len(policySet))
	for name := range policySet {
		policies = append(policies, name)
	}
	sort.Strings(policies)
	if len(policies) > maxPoliciesHit {
		policies = policies[:maxPoliciesHit]
	}

	return &LockoutSummary{
		UPN:                     upn,
		LookbackHours:           lookbackHours,
		InteractiveOnly:         interactiveOnly,
		Status:                  status,
		LastFailureTime:         formatEventTime(lastFailure),
		LastSuccessTime:         formatEventTime(lastSuccess),
		SuccessCount:            successCount,
		FailureCount:            failureCount,
		AppsSuccessTop:          topCounts(appsSuccess, topAppCount),
		AppsFailureTop:          topCounts(appsFailure, topAppCount),
		ConditionalAccessStatus: topCounts(caStatus, len(caStatus)),
		TopErrors:               topErrors(failureCodes, topErrorCount),
		PoliciesHit:             policies,
		Recommendation:          recommendation,
	}
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// topCounts returns the n highest counts, ordered by count descending and
// key ascending for determinism.
func topCounts(counts map[string]int, n int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, CountEntry{Key: key, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	if len(entries) == 0 {
		return []CountEntry{}
	}
	return entries
}

// topErrors returns the n most frequent error codes, ordered by count
// descending and code ascending.
func topErrors(counts map[int]int, n int) []ErrorEntry {
	entries := make([]ErrorEntry, 0, len(counts))
	for code, count := range counts {
		entries = append(entries, ErrorEntry{Code: code, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Code < entries[j].Code
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	if len(entries) == 0 {
		return []ErrorEntry{}
	}
	return entries
}

func formatEventTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
