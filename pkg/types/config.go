// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds HTTP client settings.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bibmagic/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FetchConfig holds settings for fetching BibTeX records by DOI.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the DOI resolver (default https://doi.org/).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Mailto is appended to the User-Agent so resolvers can route requests
	// to their polite pool.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// Delay is the pause between consecutive requests (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// MaxRetries bounds the backoff loop on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig holds settings for the SQLite bibliography index.
type StoreConfig struct {
	// Dir is the directory holding bibmagic.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings read from bibmagic.yaml and the environment.
type Config struct {
	Parser ParserOptions `json:"parser" yaml:"parser" mapstructure:"parser"`
	Store  StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Fetch  FetchConfig   `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Log    LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() Config {
	return Config{
		Parser: DefaultParserOptions(),
		Store: StoreConfig{
			Dir:        ".bibmagic",
			MaxResults: 20,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "bibmagic/0.1",
			},
			BaseURL:    "https://doi.org/",
			Delay:      time.Second,
			MaxRetries: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
