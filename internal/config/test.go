package config

import "github.com/caarlos0/env/v11"

// TestConfig points store-backed tests at a throwaway Postgres. Tests
// create a schema per run under this DSN; when it is unset they skip.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
