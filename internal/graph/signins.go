package graph

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// signInSelectFields is the $select list for sign-in log queries.
const signInSelectFields = "id,createdDateTime,userPrincipalName,appDisplayName,status," +
	"isInteractive,conditionalAccessStatus,appliedConditionalAccessPolicies"

// ListSignIns returns sign-in events for a user since a point in time,
// following @odata.nextLink pagination up to maxSignInPages pages.
func (c *client) ListSignIns(ctx context.Context, opts ListSignInsOptions) ([]SignIn, error) {
	if opts.UPN == "" {
		return nil, fmt.Errorf("upn is required")
	}

	top := opts.Top
	if top <= 0 || top > signInPageSize {
		top = signInPageSize
	}

	filter := fmt.Sprintf("userPrincipalName eq '%s' and createdDateTime ge %s",
		opts.UPN, opts.Since.UTC().Format("2006-01-02T15:04:05Z"))
	if opts.InteractiveOnly {
		filter += " and isInteractive eq true"
	}

	query := url.Values{}
	query.Set("$filter", filter)
	query.Set("$select", signInSelectFields)
	query.Set("$top", strconv.Itoa(top))

	requestURL := c.buildURL("/auditLogs/signIns", query)

	var events []SignIn
	for page := 0; page < maxSignInPages && requestURL != ""; page++ {
		var result struct {
			Value    []SignIn `json:"value"`
			NextLink string   `json:"@odata.nextLink"`
		}
		if err := c.do(ctx, "list_signins", "GET", requestURL, nil, &result); err != nil {
			return nil, err
		}
		events = append(events, result.Value...)
		requestURL = result.NextLink
	}

	return events, nil
}
