package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir: DefaultBaseDir(),

		HubSpot: HubSpotConfig{
			BaseURL:    "https://api.hubapi.com",
			PageLimit:  100,
			MaxRetries: 5,
			RateLimit:  100,
		},

		Athena: AthenaConfig{
			Region:      "us-east-1",
			Workgroup:   "primary",
			PollSeconds: 2,
		},

		PostHog: PostHogConfig{
			Host:       "https://app.posthog.com",
			DaysBack:   7,
			PersonsCap: 1000,
			MaxRetries: 5,
			RateLimit:  120,
		},
	}
}
