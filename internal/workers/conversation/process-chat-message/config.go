// internal/workers/conversation/process-chat-message/config.go
package processchatmessage

import (
	"time"

	"rental-chatbot/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	c := &Config{
		Timeout:    config.GetDuration(wc.Timeout),
		MaxRetries: wc.MaxRetries,
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}
