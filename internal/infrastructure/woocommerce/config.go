package woocommerce

import "errors"

// Config holds the WooCommerce REST API credentials and endpoint.
type Config struct {
	// BaseURL is the store root, e.g. https://shop.example.com
	BaseURL string
	// ConsumerKey is the REST API consumer key (ck_...)
	ConsumerKey string
	// ConsumerSecret is the REST API consumer secret (cs_...)
	ConsumerSecret string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

var (
	ErrConfigMissingBaseURL        = errors.New("woocommerce: base URL is required")
	ErrConfigMissingConsumerKey    = errors.New("woocommerce: consumer key is required")
	ErrConfigMissingConsumerSecret = errors.New("woocommerce: consumer secret is required")
)

// NewConfig creates a configuration with defaults.
func NewConfig(baseURL, consumerKey, consumerSecret string) *Config {
	return &Config{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		TimeoutSeconds: 30,
	}
}

// Validate validates the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.ConsumerKey == "" {
		return ErrConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrConfigMissingConsumerSecret
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
