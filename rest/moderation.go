package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// memberPath builds the member-scoped moderation path prefix.
func memberPath(serverID, memberID string) string {
	return "/api/servers/" + url.PathEscape(serverID) + "/members/" + url.PathEscape(memberID)
}

// AddMemberRole assigns a custom role to a member.
func (c *Client) AddMemberRole(ctx context.Context, serverID, memberID, roleID string) error {
	body := map[string]string{"roleId": roleID}
	if err := c.do(ctx, http.MethodPost, memberPath(serverID, memberID)+"/roles", body, nil); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}

// RemoveMemberRole removes a custom role from a member.
func (c *Client) RemoveMemberRole(ctx context.Context, serverID, memberID, roleID string) error {
	if err := c.do(ctx, http.MethodDelete, memberPath(serverID, memberID)+"/roles/"+url.PathEscape(roleID), nil, nil); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

// TimeoutMember applies a timeout to a member for the given duration.
func (c *Client) TimeoutMember(ctx context.Context, serverID, memberID string, d time.Duration) error {
	body := map[string]int64{"seconds": int64(d.Seconds())}
	if err := c.do(ctx, http.MethodPost, memberPath(serverID, memberID)+"/timeout", body, nil); err != nil {
		return fmt.Errorf("failed to timeout member: %w", err)
	}
	return nil
}

// BanMember bans a member from the server.
func (c *Client) BanMember(ctx context.Context, serverID, memberID, reason string) error {
	body := map[string]string{"reason": reason}
	if err := c.do(ctx, http.MethodPost, memberPath(serverID, memberID)+"/ban", body, nil); err != nil {
		return fmt.Errorf("failed to ban member: %w", err)
	}
	return nil
}

// KickMember removes a member from the server without banning.
func (c *Client) KickMember(ctx context.Context, serverID, memberID string) error {
	if err := c.do(ctx, http.MethodDelete, memberPath(serverID, memberID), nil, nil); err != nil {
		return fmt.Errorf("failed to kick member: %w", err)
	}
	return nil
}
