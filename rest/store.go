package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/parlorchat/parlor-go/models"
)

// ListTiers fetches the purchasable membership tiers.
func (c *Client) ListTiers(ctx context.Context) ([]models.StoreTier, error) {
	var tiers []models.StoreTier
	if err := c.do(ctx, http.MethodGet, "/api/store/tiers", nil, &tiers); err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	return tiers, nil
}

// Purchase buys a membership tier for the calling user and returns the
// resulting membership.
func (c *Client) Purchase(ctx context.Context, tierID string) (*models.Membership, error) {
	body := map[string]string{"tierId": tierID}
	var m models.Membership
	if err := c.do(ctx, http.MethodPost, "/api/store/purchase", body, &m); err != nil {
		return nil, fmt.Errorf("failed to purchase tier: %w", err)
	}
	return &m, nil
}

// GetMembership fetches the calling user's current membership. A user with
// no paid membership gets a zero-valued, inactive membership.
func (c *Client) GetMembership(ctx context.Context) (*models.Membership, error) {
	var m models.Membership
	if err := c.do(ctx, http.MethodGet, "/api/user/membership", nil, &m); err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}
