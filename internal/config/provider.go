package config

import "github.com/caarlos0/env/v11"

// BackendConfig describes one ark-compatible generation backend.
type BackendConfig struct {
	Name        string   `env:"NAME"`
	APIKey      string   `env:"API_KEY"`
	Model       string   `env:"MODEL"`
	BaseURL     string   `env:"BASE_URL"`
	Region      string   `env:"REGION"`
	Temperature *float64 `env:"TEMPERATURE"`
	MaxTokens   *int     `env:"MAX_TOKENS"`
}

// Enabled reports whether the backend has the credentials it needs.
func (c BackendConfig) Enabled() bool {
	return c.Name != "" && c.Model != "" && c.APIKey != ""
}

// ProviderConfig lists generation backends in fallback order.
type ProviderConfig struct {
	Primary   BackendConfig `envPrefix:"PROVIDER_PRIMARY_"`
	Secondary BackendConfig `envPrefix:"PROVIDER_SECONDARY_"`
}

func LoadProvider() (ProviderConfig, error) {
	var cfg ProviderConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// Configured returns the enabled backends in order.
func (c ProviderConfig) Configured() []BackendConfig {
	out := make([]BackendConfig, 0, 2)
	for _, b := range []BackendConfig{c.Primary, c.Secondary} {
		if b.Enabled() {
			out = append(out, b)
		}
	}
	return out
}
