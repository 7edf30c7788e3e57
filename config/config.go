// Package config loads runtime configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted in RAGOPS_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config holds agent runtime configuration loaded from environment variables.
type Config struct {
	// Provider selection
	Provider string
	Model    string

	// API keys and endpoints
	OpenAIKey     string
	OpenAIBaseURL string
	AnthropicKey  string

	// Agent behavior
	MaxIterations int
	SystemPrompt  string

	// Project state database
	DBPath string

	// MCP server commands to launch and discover tools from, for example
	// "ragops-tools" or "npx -y @some/mcp-server".
	MCPServers []string

	LogLevel string // debug, info, warn, error
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present (silent fail if not found).
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Provider:      getEnvOrDefault("RAGOPS_PROVIDER", ProviderOpenAI),
		Model:         os.Getenv("RAGOPS_MODEL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		MaxIterations: getEnvIntOrDefault("RAGOPS_MAX_ITERATIONS", 50),
		SystemPrompt:  os.Getenv("RAGOPS_SYSTEM_PROMPT"),
		DBPath:        getEnvOrDefault("RAGOPS_DB_PATH", defaultDBPath()),
		MCPServers:    splitList(os.Getenv("RAGOPS_MCP_SERVERS")),
		LogLevel:      getEnvOrDefault("RAGOPS_LOG_LEVEL", "warn"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected provider has the credentials it needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for anthropic provider")
		}
	case ProviderMock:
		// No credentials needed.
	default:
		return fmt.Errorf("unknown provider: %s (must be openai, anthropic, or mock)", c.Provider)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("RAGOPS_MAX_ITERATIONS must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// DBPathFromEnv resolves the project database path without requiring full
// provider configuration. Tools-only binaries use this.
func DBPathFromEnv() string {
	godotenv.Load()
	return getEnvOrDefault("RAGOPS_DB_PATH", defaultDBPath())
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ragops.db"
	}
	return filepath.Join(home, ".ragops", "ragops.db")
}

// splitList parses a comma-separated value into trimmed non-empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
