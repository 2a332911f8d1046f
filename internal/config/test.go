package config

import "github.com/caarlos0/env/v11"

// TestConfig gates the store integration suites: without TEST_POSTGRES_DSN
// set, LoadTest fails and those suites skip.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
