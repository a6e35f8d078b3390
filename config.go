package parlor

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/parlorchat/parlor-go/ai"
	"github.com/parlorchat/parlor-go/instrumentation"
)

// Config holds session configuration.
// Structured using composition: one nested section per concern.
type Config struct {
	// BaseURL is the platform API origin, e.g. "https://parlor.chat" (required).
	BaseURL string

	// ServerID is the community server this session is scoped to (required).
	ServerID string

	// UserID is the authenticated user's id (required). It is matched
	// against the fetched roster to resolve the session's current member.
	UserID string

	// TokenSource supplies bearer tokens for API calls. Nil means
	// unauthenticated requests; token issuance itself is out of scope.
	TokenSource oauth2.TokenSource

	// Nicknames configures local persistence of nickname overrides.
	Nicknames NicknameConfig

	// SlowMode configures the client-side send limiter.
	SlowMode SlowModeConfig

	// AI configures the profile section generator. Nil disables it; use
	// ai.ConfigFromEnv to populate from GEMINI_* environment variables.
	AI *ai.Config

	// RequestTimeout is the per-call timeout applied when the caller's
	// context has no deadline (default: 30s).
	RequestTimeout time.Duration

	// Logger for structured logging (optional, uses slog.Default if not provided)
	Logger *slog.Logger

	// HTTPClient is a custom HTTP client for API requests.
	// Can be used to add proxies, logging, or transport middleware.
	HTTPClient *http.Client

	// Instrumentation enables metrics and tracing (optional).
	Instrumentation *instrumentation.Instrumentation
}

// NicknameConfig holds nickname override cache settings.
type NicknameConfig struct {
	// SQLitePath is the path of the local override database. Empty keeps
	// overrides in memory only, so they don't survive a restart.
	SQLitePath string

	// DisableRemoteSync keeps overrides purely device-local.
	DisableRemoteSync bool
}

// SlowModeConfig holds send limiter settings.
type SlowModeConfig struct {
	// MaxTrackedChannels bounds the limiter map; least recently used
	// channels are evicted past it. Zero means the default (1,000).
	MaxTrackedChannels int
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.ServerID == "" {
		return fmt.Errorf("server ID is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	return nil
}
