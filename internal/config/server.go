package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	CampaignID string `env:"CAMPAIGN_ID" envDefault:"default"`

	// SeedDemoCharacter creates a starter character at boot when the
	// characters table is empty (local development convenience).
	SeedDemoCharacter bool `env:"SEED_DEMO_CHARACTER" envDefault:"false"`

	GenerationTimeoutSecs int `env:"GENERATION_TIMEOUT_SECONDS" envDefault:"60"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
