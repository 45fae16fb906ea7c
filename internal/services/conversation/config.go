package conversation

import (
	"fmt"
	"time"
)

type Config struct {
	DraftDebounce time.Duration  // quiet period before a draft is written
	DraftTimeout  time.Duration  // upper bound for one background draft write
	Location      *time.Location // day boundaries for date jumps
	Clock         func() time.Time
}

func (c *Config) Validate() error {
	if c.DraftDebounce < 0 {
		return fmt.Errorf("draft_debounce must not be negative")
	}
	if c.DraftTimeout <= 0 {
		return fmt.Errorf("draft_timeout must be positive")
	}
	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	if c.Clock == nil {
		return fmt.Errorf("clock is required")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		DraftDebounce: 500 * time.Millisecond,
		DraftTimeout:  5 * time.Second,
		Location:      time.Local,
		Clock:         time.Now,
	}
}
