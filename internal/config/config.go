package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"spotiscience/internal/models"
)

// AuthMethod represents how an upstream provider authenticates requests
type AuthMethod string

const (
	AuthMethodOAuth2 AuthMethod = "oauth2"
	AuthMethodAPIKey AuthMethod = "api_key"
)

// Store drivers
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// ProviderConfig represents configuration for a single upstream provider
type ProviderConfig struct {
	Name       string     `json:"name"`
	Enabled    bool       `json:"enabled"`
	AuthMethod AuthMethod `json:"auth_method"`

	// OAuth2 client credentials (Spotify)
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	TokenURL     string `json:"token_url,omitempty"`

	// Bearer API key (Genius)
	APIKey string `json:"api_key,omitempty"`

	BaseURL string        `json:"base_url,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Config holds all configuration for the application
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	StoreDriver     string `envconfig:"STORE_DRIVER" default:"sqlite"`
	MongodbURL      string `envconfig:"MONGODB_URL"`
	MongodbDatabase string `envconfig:"MONGODB_DATABASE" default:"spotiscience"`
	SQLitePath      string `envconfig:"SQLITE_PATH" default:"spotiscience.sqlite3"`
	ValkeyURL       string `envconfig:"VALKEY_URL"`
	L1CacheItems    int    `envconfig:"L1_CACHE_ITEMS" default:"1000"`
	SnapshotPath    string `envconfig:"SNAPSHOT_PATH" default:"spotiscience.db"`

	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyAPIURL       string `envconfig:"SPOTIFY_API_URL" default:"https://api.spotify.com/v1"`
	SpotifyTokenURL     string `envconfig:"SPOTIFY_TOKEN_URL" default:"https://accounts.spotify.com/api/token"`
	GeniusAccessToken   string `envconfig:"GENIUS_ACCESS_TOKEN"`
	GeniusAPIURL        string `envconfig:"GENIUS_API_URL" default:"https://api.genius.com"`

	RequestInterval time.Duration `envconfig:"REQUEST_INTERVAL" default:"600ms"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	MoodModelPath  string `envconfig:"MOOD_MODEL_PATH"`
	APITokenSecret string `envconfig:"API_TOKEN_SECRET"`

	// Providers is derived from the credentials above
	Providers map[string]*ProviderConfig `json:"-"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Providers = make(map[string]*ProviderConfig)
	cfg.loadProviders()
	return &cfg, nil
}

// Validate rejects combinations no component can run with
func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case StoreSQLite:
	case StoreMongo:
		if c.MongodbURL == "" {
			return fmt.Errorf("STORE_DRIVER=mongo requires MONGODB_URL: %w", models.ErrUnsupportedOption)
		}
	default:
		return fmt.Errorf("store driver %q: %w", c.StoreDriver, models.ErrUnsupportedOption)
	}
	if c.L1CacheItems < 0 {
		return fmt.Errorf("L1_CACHE_ITEMS %d: %w", c.L1CacheItems, models.ErrUnsupportedOption)
	}
	return nil
}

func (c *Config) loadProviders() {
	if c.SpotifyClientID != "" && c.SpotifyClientSecret != "" {
		c.Providers["spotify"] = &ProviderConfig{
			Name:         "spotify",
			Enabled:      true,
			AuthMethod:   AuthMethodOAuth2,
			ClientID:     c.SpotifyClientID,
			ClientSecret: c.SpotifyClientSecret,
			TokenURL:     c.SpotifyTokenURL,
			BaseURL:      c.SpotifyAPIURL,
			Timeout:      c.RequestTimeout,
		}
	}

	if c.GeniusAccessToken != "" {
		c.Providers["genius"] = &ProviderConfig{
			Name:       "genius",
			Enabled:    true,
			AuthMethod: AuthMethodAPIKey,
			APIKey:     c.GeniusAccessToken,
			BaseURL:    c.GeniusAPIURL,
			Timeout:    c.RequestTimeout,
		}
	}
}

// GetProviderConfig returns configuration for a specific provider
func (c *Config) GetProviderConfig(name string) (*ProviderConfig, bool) {
	provider, exists := c.Providers[name]
	return provider, exists
}

// EnabledProviders returns the enabled provider names
func (c *Config) EnabledProviders() []string {
	var names []string
	for name, provider := range c.Providers {
		if provider.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// IsEnabled checks if a provider is configured and enabled
func (c *Config) IsEnabled(name string) bool {
	provider, exists := c.GetProviderConfig(name)
	return exists && provider.Enabled
}

// ValidateProviderConfig validates a provider configuration
func ValidateProviderConfig(provider *ProviderConfig) error {
	if provider.Name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	switch provider.AuthMethod {
	case AuthMethodOAuth2:
		if provider.ClientID == "" || provider.ClientSecret == "" {
			return fmt.Errorf("OAuth2 requires client_id and client_secret")
		}
		if provider.TokenURL == "" {
			return fmt.Errorf("OAuth2 requires token_url")
		}
	case AuthMethodAPIKey:
		if provider.APIKey == "" {
			return fmt.Errorf("API key authentication requires api_key")
		}
	default:
		return fmt.Errorf("unsupported auth method: %s", provider.AuthMethod)
	}

	if provider.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}

// RegisterProviderConfig registers a provider after validating it
func (c *Config) RegisterProviderConfig(name string, provider *ProviderConfig) error {
	if err := ValidateProviderConfig(provider); err != nil {
		return fmt.Errorf("invalid provider config for %s: %w", name, err)
	}
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	provider.Name = name
	c.Providers[name] = provider
	return nil
}
