// Package ai generates profile sections through the Gemini REST API. The
// model is asked for a single JSON object matching the ProfileSection
// schema; because model output is text, the reply may arrive fenced,
// unfenced, or not as JSON at all, and parsing degrades gracefully to a
// plain text section rather than surfacing an error.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/parlorchat/parlor-go/models"
)

// DefaultEndpoint is the Gemini REST API origin.
const DefaultEndpoint = "https://generativelanguage.googleapis.com"

// DefaultModel is used when GEMINI_MODEL is not set.
const DefaultModel = "gemini-1.5-flash"

const defaultRequestTimeout = 60 * time.Second

// sectionSchema is the JSON shape the model is constrained to. Kept as a
// literal so the prompt and the parser can never drift apart silently.
const sectionSchema = `{"kind":"text|list|gallery","title":"string","body":"string","items":["string"]}`

// Generator calls the Gemini API to produce profile sections. It is safe
// for concurrent use.
type Generator struct {
	cfg      *Config
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	// next rotates across the configured API keys.
	next atomic.Uint64
}

// NewGenerator creates a generator from the given config.
func NewGenerator(cfg *Config, logger *slog.Logger) (*Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("at least one API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Generator{
		cfg:      cfg,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		logger:   logger,
	}, nil
}

// GenerateSection asks the model for one profile section about the given
// subject. The returned section is always usable: structured when the model
// cooperated, a text section wrapping the raw reply when it did not.
func (g *Generator) GenerateSection(ctx context.Context, subject string) (*models.ProfileSection, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}

	prompt := fmt.Sprintf(
		"Write a profile page section about the following subject. "+
			"Respond with exactly one JSON object matching this schema, and nothing else: %s\n\nSubject: %s",
		sectionSchema, subject,
	)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseSection(text), nil
}

// generate performs one generateContent call, rotating across API keys and
// advancing to the next key when the current one is rejected or throttled.
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	start := int(g.next.Add(1)-1) % len(g.cfg.APIKeys)
	var lastErr error
	for attempt := 0; attempt < len(g.cfg.APIKeys); attempt++ {
		key := g.cfg.APIKeys[(start+attempt)%len(g.cfg.APIKeys)]

		text, retryable, err := g.call(ctx, key, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		g.logger.Warn("Gemini call failed, rotating API key", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (g *Generator) call(ctx context.Context, key string, payload []byte) (text string, retryable bool, err error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.endpoint, g.cfg.Model, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Quota and auth failures are key-specific; rotate. Anything else
		// would fail identically on every key.
		retryable := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusForbidden ||
			resp.StatusCode == http.StatusUnauthorized
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", retryable, fmt.Errorf("generate request failed with status %d: %s", resp.StatusCode, string(data))
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("response contained no candidates")
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), false, nil
}

// ParseSection extracts a ProfileSection from model output. It accepts a
// bare JSON object, an object inside a ``` or ```json fence, or an object
// embedded in surrounding prose. Anything unparseable is wrapped as a text
// section carrying the raw reply.
func ParseSection(text string) *models.ProfileSection {
	candidate := extractJSONObject(text)
	if candidate != "" {
		var section models.ProfileSection
		if err := json.Unmarshal([]byte(candidate), &section); err == nil && validKind(section.Kind) {
			return &section
		}
	}
	return &models.ProfileSection{Kind: models.KindText, Body: strings.TrimSpace(text)}
}

// extractJSONObject returns the outermost {...} span of the text, with any
// code fence stripped first. Empty when no braces are present.
func extractJSONObject(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func validKind(kind models.ProfileSectionKind) bool {
	switch kind {
	case models.KindText, models.KindList, models.KindGallery:
		return true
	}
	return false
}
