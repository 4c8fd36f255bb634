package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	APIKey    string `env:"API_KEY" envDefault:""`
	Users     int    `env:"BOT_USERS" envDefault:"1"`
	Awards    int    `env:"BOT_AWARDS" envDefault:"10"`
	Action    string `env:"BOT_ACTION" envDefault:"watch_video"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
