package upstream

// Config holds configuration for the metadata provider client.
type Config struct {
	// BaseURL is the root of the provider API.
	BaseURL string `mapstructure:"base_url" default:"https://api.example-metadata.com/v1"`
	// Token is the bearer token for authenticated calls.
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds bounds single-entity lookups.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// SearchTimeoutSeconds bounds search and listing calls, which the
	// provider serves considerably slower.
	SearchTimeoutSeconds int `mapstructure:"search_timeout_seconds" default:"30"`
}
