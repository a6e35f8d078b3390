package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/parlorchat/parlor-go/models"
)

// ListSettings fetches all admin settings sections.
func (c *Client) ListSettings(ctx context.Context) ([]models.AdminSettings, error) {
	var sections []models.AdminSettings
	if err := c.do(ctx, http.MethodGet, "/api/admin/settings", nil, &sections); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return sections, nil
}

// GetSettings fetches one named settings section.
func (c *Client) GetSettings(ctx context.Context, section string) (*models.AdminSettings, error) {
	var s models.AdminSettings
	if err := c.do(ctx, http.MethodGet, "/api/admin/settings/"+url.PathEscape(section), nil, &s); err != nil {
		return nil, fmt.Errorf("failed to get settings section: %w", err)
	}
	return &s, nil
}

// SaveSettings replaces one named settings section and returns the stored copy.
func (c *Client) SaveSettings(ctx context.Context, s *models.AdminSettings) (*models.AdminSettings, error) {
	if s.Section == "" {
		return nil, ErrInvalidRequest("settings section name is required")
	}
	var saved models.AdminSettings
	if err := c.do(ctx, http.MethodPut, "/api/admin/settings/"+url.PathEscape(s.Section), s, &saved); err != nil {
		return nil, fmt.Errorf("failed to save settings section: %w", err)
	}
	return &saved, nil
}

// SendTestEmail asks the backend to send a test email using the currently
// saved email settings.
func (c *Client) SendTestEmail(ctx context.Context, recipient string) error {
	body := map[string]string{"recipient": recipient}
	if err := c.do(ctx, http.MethodPost, "/api/admin/settings/test-email", body, nil); err != nil {
		return fmt.Errorf("failed to send test email: %w", err)
	}
	return nil
}

// GetProfile fetches a user's public profile.
func (c *Client) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile/"+url.PathEscape(userID), nil, &p); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
