package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mishmanage/mishmanage/internal/domain/triage"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	LogLevel         string   `mapstructure:"LOG_LEVEL"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit        string   `mapstructure:"BODY_LIMIT"`
	Nurses           []string `mapstructure:"NURSES"`
	CalendarStart    string   `mapstructure:"CALENDAR_START"`
	CalendarEnd      string   `mapstructure:"CALENDAR_END"`
	CalendarHeightPx int      `mapstructure:"CALENDAR_HEIGHT_PX"`
	MaxWindowMinutes int      `mapstructure:"MAX_WINDOW_MINUTES"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"BODY_LIMIT", "NURSES", "CALENDAR_START", "CALENDAR_END", "CALENDAR_HEIGHT_PX",
	"MAX_WINDOW_MINUTES",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("NURSES", "A,B,C,D,E,F")
	v.SetDefault("CALENDAR_START", "07:00")
	v.SetDefault("CALENDAR_END", "21:00")
	v.SetDefault("CALENDAR_HEIGHT_PX", 840)
	v.SetDefault("MAX_WINDOW_MINUTES", 840)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.Nurses = splitList(v.GetString("NURSES"))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Calendar builds the column scale from the calendar settings.
func (c *Config) Calendar() (triage.Calendar, error) {
	return triage.NewCalendar(c.CalendarStart, c.CalendarEnd, c.CalendarHeightPx, c.MaxWindowMinutes)
}

// Validate checks that the board can be laid out with this configuration.
func (c *Config) Validate() error {
	if len(c.Nurses) == 0 {
		return fmt.Errorf("NURSES must list at least one nurse")
	}
	seen := make(map[string]bool, len(c.Nurses))
	for _, n := range c.Nurses {
		if seen[n] {
			return fmt.Errorf("NURSES contains duplicate name %q", n)
		}
		seen[n] = true
	}
	if _, err := c.Calendar(); err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	return nil
}
