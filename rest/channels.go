package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/parlorchat/parlor-go/models"
)

// CreateChannelRequest is the payload for creating a channel.
type CreateChannelRequest struct {
	Name       string                   `json:"name"`
	Type       models.ChannelType       `json:"type"`
	CategoryID string                   `json:"categoryId"`
	IsPrivate  bool                     `json:"isPrivate,omitempty"`
	Appearance models.ChannelAppearance `json:"appearance,omitempty"`
}

// UpdateChannelRequest is the payload for patching a channel. Nil fields are
// left unchanged by the backend.
type UpdateChannelRequest struct {
	Name       *string                   `json:"name,omitempty"`
	IsPrivate  *bool                     `json:"isPrivate,omitempty"`
	SlowMode   *int                      `json:"slowMode,omitempty"`
	Appearance *models.ChannelAppearance `json:"appearance,omitempty"`
}

// GetChannel fetches a single channel.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	var ch models.Channel
	if err := c.do(ctx, http.MethodGet, "/api/channels/"+url.PathEscape(channelID), nil, &ch); err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &ch, nil
}

// CreateChannel creates a channel in a server's category.
func (c *Client) CreateChannel(ctx context.Context, serverID string, req *CreateChannelRequest) (*models.Channel, error) {
	var ch models.Channel
	if err := c.do(ctx, http.MethodPost, "/api/servers/"+url.PathEscape(serverID)+"/channels", req, &ch); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	return &ch, nil
}

// UpdateChannel patches a channel and returns the authoritative copy.
func (c *Client) UpdateChannel(ctx context.Context, channelID string, req *UpdateChannelRequest) (*models.Channel, error) {
	var ch models.Channel
	if err := c.do(ctx, http.MethodPatch, "/api/channels/"+url.PathEscape(channelID), req, &ch); err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}
	return &ch, nil
}

// DeleteChannel deletes a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/channels/"+url.PathEscape(channelID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

// GetMessages fetches the full message history for a channel. The backend
// exposes no pagination on this endpoint; the entire history is returned.
func (c *Client) GetMessages(ctx context.Context, channelID string) ([]models.Message, error) {
	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, "/api/channels/"+url.PathEscape(channelID)+"/messages", nil, &messages); err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// SendMessageRequest is the payload for posting a message.
type SendMessageRequest struct {
	Content     string              `json:"content"`
	ReplyToID   string              `json:"replyToId,omitempty"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// SendMessage posts a message to a channel and returns the server-assigned
// message. Attachments must already be uploaded (see Upload).
func (c *Client) SendMessage(ctx context.Context, channelID string, req *SendMessageRequest) (*models.Message, error) {
	var msg models.Message
	if err := c.do(ctx, http.MethodPost, "/api/channels/"+url.PathEscape(channelID)+"/messages", req, &msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &msg, nil
}
