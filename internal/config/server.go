package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	RulesPath     string `env:"RULES_PATH,required,notEmpty"`
	RulesReloadMS int    `env:"RULES_RELOAD_MS" envDefault:"1000"`

	IdempotencyTTLHours int `env:"IDEMPOTENCY_TTL_HOURS" envDefault:"24"`
	ReplayTTLHours      int `env:"REPLAY_TTL_HOURS" envDefault:"168"`

	NotifierRetention int `env:"NOTIFIER_RETENTION" envDefault:"1024"`

	RelayWorkers       int `env:"RELAY_WORKERS" envDefault:"4"`
	RelayQueueSize     int `env:"RELAY_QUEUE_SIZE" envDefault:"2048"`
	RelayRetryMax      int `env:"RELAY_RETRY_MAX" envDefault:"5"`
	RelayRetryBaseMS   int `env:"RELAY_RETRY_BASE_MS" envDefault:"500"`
	RelayEnqueueWaitMS int `env:"RELAY_ENQUEUE_WAIT_MS" envDefault:"50"`

	LeaderboardMaxLimit int  `env:"LEADERBOARD_MAX_LIMIT" envDefault:"100"`
	AwardIncludeTopK    bool `env:"AWARD_INCLUDE_TOPK" envDefault:"false"`
	AwardTopKSize       int  `env:"AWARD_TOPK_SIZE" envDefault:"10"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c ServerConfig) RulesReload() time.Duration {
	return time.Duration(c.RulesReloadMS) * time.Millisecond
}

func (c ServerConfig) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHours) * time.Hour
}

func (c ServerConfig) ReplayTTL() time.Duration {
	return time.Duration(c.ReplayTTLHours) * time.Hour
}

func (c ServerConfig) RelayRetryBase() time.Duration {
	return time.Duration(c.RelayRetryBaseMS) * time.Millisecond
}

func (c ServerConfig) RelayEnqueueWait() time.Duration {
	return time.Duration(c.RelayEnqueueWaitMS) * time.Millisecond
}
