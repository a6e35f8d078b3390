package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/parlorchat/parlor-go/models"
)

// ListPosts fetches blog posts, optionally filtered by publication status.
func (c *Client) ListPosts(ctx context.Context, status models.PostStatus) ([]models.BlogPost, error) {
	path := "/api/blog/posts"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var posts []models.BlogPost
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost fetches a single blog post.
func (c *Client) GetPost(ctx context.Context, postID string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := c.do(ctx, http.MethodGet, "/api/blog/posts/"+url.PathEscape(postID), nil, &post); err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// CreatePost creates a blog post and returns the stored copy.
func (c *Client) CreatePost(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	var created models.BlogPost
	if err := c.do(ctx, http.MethodPost, "/api/blog/posts", post, &created); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &created, nil
}

// UpdatePost replaces a blog post and returns the stored copy.
func (c *Client) UpdatePost(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	if post.ID == "" {
		return nil, ErrInvalidRequest("post ID is required")
	}
	var updated models.BlogPost
	if err := c.do(ctx, http.MethodPut, "/api/blog/posts/"+url.PathEscape(post.ID), post, &updated); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return &updated, nil
}

// DeletePost deletes a blog post.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/blog/posts/"+url.PathEscape(postID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}
