package directory

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	AppName      string         // prefix of exported file names
	DefaultTitle string         // title of chats created from the sidebar
	Location     *time.Location // zone of human readable timestamps in markdown
	Clock        func() time.Time
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AppName) == "" {
		return fmt.Errorf("app_name is required")
	}
	if strings.TrimSpace(c.DefaultTitle) == "" {
		return fmt.Errorf("default_title is required")
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
		AppName:      "soliloquy",
		DefaultTitle: "New Note",
		Location:     time.Local,
		Clock:        time.Now,
	}
}
