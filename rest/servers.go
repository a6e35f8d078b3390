package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/parlorchat/parlor-go/models"
)

// ListServers fetches the servers visible to the given user. userID may be
// empty to list public servers.
func (c *Client) ListServers(ctx context.Context, userID string) ([]models.Server, error) {
	path := "/api/servers"
	if userID != "" {
		path += "?userId=" + url.QueryEscape(userID)
	}
	var servers []models.Server
	if err := c.do(ctx, http.MethodGet, path, nil, &servers); err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// GetServer fetches a single server.
func (c *Client) GetServer(ctx context.Context, serverID string) (*models.Server, error) {
	var server models.Server
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID), nil, &server); err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return &server, nil
}

// GetServerStats fetches aggregate stats for a server.
func (c *Client) GetServerStats(ctx context.Context, serverID string) (*models.ServerStats, error) {
	var stats models.ServerStats
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID)+"/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get server stats: %w", err)
	}
	return &stats, nil
}

// GetMembers fetches the full member roster for a server.
func (c *Client) GetMembers(ctx context.Context, serverID string) ([]models.Member, error) {
	var members []models.Member
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID)+"/members", nil, &members); err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	return members, nil
}

// GetRoles fetches the custom roles defined on a server.
func (c *Client) GetRoles(ctx context.Context, serverID string) ([]models.Role, error) {
	var roles []models.Role
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID)+"/roles", nil, &roles); err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	return roles, nil
}

// GetCategories fetches the category/channel tree for a server.
func (c *Client) GetCategories(ctx context.Context, serverID string) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID)+"/categories", nil, &categories); err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// GetBans fetches the server's ban list.
func (c *Client) GetBans(ctx context.Context, serverID string) ([]models.Ban, error) {
	var bans []models.Ban
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID)+"/bans", nil, &bans); err != nil {
		return nil, fmt.Errorf("failed to get bans: %w", err)
	}
	return bans, nil
}

// GetInvites fetches the server's invite links.
func (c *Client) GetInvites(ctx context.Context, serverID string) ([]models.Invite, error) {
	var invites []models.Invite
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID)+"/invites", nil, &invites); err != nil {
		return nil, fmt.Errorf("failed to get invites: %w", err)
	}
	return invites, nil
}

// JoinServer joins the calling user to a server. The backend treats joining
// an already-joined server as a no-op, so callers may invoke this
// unconditionally as a membership check.
func (c *Client) JoinServer(ctx context.Context, serverID string) error {
	if err := c.do(ctx, http.MethodPost, "/api/servers/"+url.PathEscape(serverID)+"/join", nil, nil); err != nil {
		return fmt.Errorf("failed to join server: %w", err)
	}
	return nil
}

// LeaveServer removes the calling user from a server.
func (c *Client) LeaveServer(ctx context.Context, serverID string) error {
	if err := c.do(ctx, http.MethodPost, "/api/servers/"+url.PathEscape(serverID)+"/leave", nil, nil); err != nil {
		return fmt.Errorf("failed to leave server: %w", err)
	}
	return nil
}

// GetNicknames fetches the server-side nickname overrides for a server as a
// memberID -> display name map.
func (c *Client) GetNicknames(ctx context.Context, serverID string) (map[string]string, error) {
	var nicks map[string]string
	if err := c.do(ctx, http.MethodGet, "/api/servers/"+url.PathEscape(serverID)+"/nicknames", nil, &nicks); err != nil {
		return nil, fmt.Errorf("failed to get nicknames: %w", err)
	}
	return nicks, nil
}

// SetNickname writes one nickname override to the server-side store. An
// empty nickname clears the override.
func (c *Client) SetNickname(ctx context.Context, serverID, memberID, nickname string) error {
	body := map[string]string{"memberId": memberID, "nickname": nickname}
	if err := c.do(ctx, http.MethodPut, "/api/servers/"+url.PathEscape(serverID)+"/nicknames", body, nil); err != nil {
		return fmt.Errorf("failed to set nickname: %w", err)
	}
	return nil
}
