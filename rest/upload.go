package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/parlorchat/parlor-go/models"
)

// MaxUploadSize is the backend's per-file size limit.
const MaxUploadSize = 8 * 1024 * 1024

// Upload uploads one attachment file and returns its stored reference.
// Message attachments are uploaded before the message referencing them is
// posted.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*models.Attachment, error) {
	return c.upload(ctx, "/api/upload", filename, r)
}

// UploadMedia uploads media for rich surfaces (blog covers, channel
// backgrounds, banners).
func (c *Client) UploadMedia(ctx context.Context, filename string, r io.Reader) (*models.Attachment, error) {
	return c.upload(ctx, "/api/upload/media", filename, r)
}

func (c *Client) upload(ctx context.Context, path, filename string, r io.Reader) (*models.Attachment, error) {
	if filename == "" {
		return nil, ErrInvalidRequest("filename is required")
	}

	ctx, cancel := c.ensureContextTimeout(ctx)
	defer cancel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	// Enforce the size limit client-side so oversized files fail before
	// the bytes travel.
	n, err := io.Copy(part, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n > MaxUploadSize {
		return nil, ErrPayloadTooLarge(fmt.Sprintf("file exceeds %d byte limit", MaxUploadSize))
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var att models.Attachment
	if err := c.send(req, &att); err != nil {
		return nil, fmt.Errorf("failed to upload %q: %w", filename, err)
	}
	if att.Name == "" {
		att.Name = filename
	}
	if att.Size == 0 {
		att.Size = n
	}
	return &att, nil
}
