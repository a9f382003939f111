package graph

import (
	"context"
	"fmt"
	"net/url"
)

// GetOrganization returns the tenant's display name and ID.
func (c *client) GetOrganization(ctx context.Context) (*Organization, error) {
	query := url.Values{}
	query.Set("$select", "displayName,id")

	var result struct {
		Value []Organization `json:"value"`
	}
	if err := c.do(ctx, "get_organization", "GET", c.buildURL("/organization", query), nil, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, fmt.Errorf("organization query returned no results")
	}
	return &result.Value[0], nil
}
