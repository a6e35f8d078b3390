package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/parlorchat/parlor-go/models"
)

// EditMessage updates a message's content and returns the authoritative
// copy with the new edited timestamp.
func (c *Client) EditMessage(ctx context.Context, messageID, content string) (*models.Message, error) {
	body := map[string]string{"content": content}
	var msg models.Message
	if err := c.do(ctx, http.MethodPatch, "/api/messages/"+url.PathEscape(messageID), body, &msg); err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}
	return &msg, nil
}

// DeleteMessage soft-deletes a message. The row is kept server-side with a
// placeholder; only the content is discarded.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/messages/"+url.PathEscape(messageID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// ToggleReaction toggles the calling user's reaction on a message and
// returns the server's resulting reaction list, which callers should treat
// as authoritative over any optimistic local toggle.
func (c *Client) ToggleReaction(ctx context.Context, messageID, emoji string) ([]models.Reaction, error) {
	body := map[string]string{"emoji": emoji}
	var out struct {
		Reactions []models.Reaction `json:"reactions"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages/"+url.PathEscape(messageID)+"/reactions", body, &out); err != nil {
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}
	return out.Reactions, nil
}
