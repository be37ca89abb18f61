package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Spotify     SpotifyConfig     `toml:"spotify"`
	Playback    PlaybackConfig    `toml:"playback"`
	Fetch       FetchConfig       `toml:"fetch"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyCredentials `toml:"spotify"`
}

// SpotifyCredentials contains Spotify API credentials.
//
// Either ClientID and ClientSecret (client credentials flow) or a static Token must be set.
type SpotifyCredentials struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Token        string `toml:"token"`
}

// HasClientCredentials reports whether both client_id and client_secret are set.
func (c SpotifyCredentials) HasClientCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SpotifyConfig contains search API settings.
type SpotifyConfig struct {
	BaseURL     string `toml:"base_url"`
	TokenURL    string `toml:"token_url"`
	Market      string `toml:"market"`
	SearchLimit int    `toml:"search_limit"`
}

// PlaybackConfig contains pipeline settings.
type PlaybackConfig struct {
	Concurrency int  `toml:"concurrency"`
	Muted       bool `toml:"muted"`
}

// FetchConfig contains preview download settings. Durations use [time.ParseDuration] syntax.
type FetchConfig struct {
	Timeout     Duration `toml:"timeout"`
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   Duration `toml:"base_delay"`
	MaxDelay    Duration `toml:"max_delay"`
	RateLimit   float64  `toml:"rate_limit"` // requests per second, 0 disables
	MaxBytes    int64    `toml:"max_bytes"`
	UserAgent   string   `toml:"user_agent"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a [time.Duration] that decodes from a TOML string like "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials with SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and SPOTIFY_TOKEN when set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := getenv("SPOTIFY_TOKEN"); v != "" {
		c.Credentials.Spotify.Token = v
	}
}

// Validate checks value ranges. Credentials are checked by the search service.
func (c *Config) Validate() error {
	switch {
	case c.Playback.Concurrency < 1:
		return fmt.Errorf("%w: playback.concurrency must be positive, got %d", ErrInvalidConfig, c.Playback.Concurrency)
	case c.Fetch.MaxAttempts < 1:
		return fmt.Errorf("%w: fetch.max_attempts must be positive, got %d", ErrInvalidConfig, c.Fetch.MaxAttempts)
	case c.Fetch.BaseDelay.Duration < 0 || c.Fetch.MaxDelay.Duration < 0:
		return fmt.Errorf("%w: fetch delays must not be negative", ErrInvalidConfig)
	case c.Fetch.RateLimit < 0:
		return fmt.Errorf("%w: fetch.rate_limit must not be negative", ErrInvalidConfig)
	case c.Spotify.BaseURL == "":
		return fmt.Errorf("%w: spotify.base_url is empty", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
