package ai

import (
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds Gemini client configuration.
type Config struct {
	// APIKeys are tried in rotation; quota or auth failures advance to the
	// next key. At least one is required.
	APIKeys []string

	// Model is the Gemini model name (default: DefaultModel).
	Model string

	// Endpoint overrides the API origin, mainly for tests.
	Endpoint string

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// ConfigFromEnv builds a Config from the environment, loading a .env file
// first if one is present. Keys come from GEMINI_API_KEY and any
// GEMINI_API_KEY_* variant, in sorted variable-name order; the model from
// GEMINI_MODEL.
func ConfigFromEnv() *Config {
	// A missing .env file is fine; the variables may be set directly.
	_ = godotenv.Load()

	var names []string
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if name == "GEMINI_API_KEY" || strings.HasPrefix(name, "GEMINI_API_KEY_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var keys []string
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			keys = append(keys, v)
		}
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultModel
	}

	return &Config{APIKeys: keys, Model: model}
}
