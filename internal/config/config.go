package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

// Config represents application configuration
type Config struct {
	User     string         `mapstructure:"user"`
	Database DatabaseConfig `mapstructure:"database"`
	Holidays HolidaysConfig `mapstructure:"holidays"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig represents the SQLite store configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// HolidaysConfig represents holiday source configuration
type HolidaysConfig struct {
	Source       string      `mapstructure:"source"` // "nager", "file" or "ics"
	APIURL       string      `mapstructure:"api_url"`
	FallbackFile string      `mapstructure:"fallback_file"`
	ICSFile      string      `mapstructure:"ics_file"`
	ICSRegion    string      `mapstructure:"ics_region"`
	CacheTTL     string      `mapstructure:"cache_ttl"`
	Redis        RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents the optional shared holiday cache
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DefaultsConfig represents settings given to users seen for the first time
type DefaultsConfig struct {
	RequiredPercent        float64           `mapstructure:"required_percent"`
	RoundingMode           string            `mapstructure:"rounding_mode"`
	CreditWeekdays         []string          `mapstructure:"credit_weekdays"`
	MonFriHolidayTreatment string            `mapstructure:"mon_fri_holiday_treatment"`
	Country                string            `mapstructure:"country"`
	State                  string            `mapstructure:"state"`
	Timezone               string            `mapstructure:"timezone"`
	Seed                   map[string]string `mapstructure:"seed"` // weekday -> status
}

// ServerConfig represents the read-only HTTP API
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from file. A missing file is fine when no path
// was given explicitly; defaults and environment variables still apply.
// A .env file in the working directory is read first and never overrides
// variables already set.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.desk-o-meter")
		v.AddConfigPath("/etc/desk-o-meter")
	}

	// DESKOMETER_DATABASE_PATH overrides database.path
	v.SetEnvPrefix("DESKOMETER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user", "")
	v.SetDefault("database.path", "desk-o-meter.db")

	v.SetDefault("holidays.source", "nager")
	v.SetDefault("holidays.api_url", "https://date.nager.at")
	v.SetDefault("holidays.fallback_file", "")
	v.SetDefault("holidays.ics_file", "")
	v.SetDefault("holidays.ics_region", "")
	v.SetDefault("holidays.cache_ttl", "24h")
	v.SetDefault("holidays.redis.addr", "")
	v.SetDefault("holidays.redis.password", "")
	v.SetDefault("holidays.redis.db", 0)

	v.SetDefault("defaults.required_percent", 0.60)
	v.SetDefault("defaults.rounding_mode", "CEIL")
	v.SetDefault("defaults.credit_weekdays", []string{"TUE", "WED", "THU"})
	v.SetDefault("defaults.mon_fri_holiday_treatment", "NEUTRAL")
	v.SetDefault("defaults.country", "US")
	v.SetDefault("defaults.state", "")
	v.SetDefault("defaults.timezone", "America/Los_Angeles")

	v.SetDefault("server.addr", "127.0.0.1:8080")

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Holidays.Source {
	case "nager":
		if c.Holidays.APIURL == "" {
			return fmt.Errorf("holidays.api_url is required for nager source")
		}
	case "file":
		if c.Holidays.FallbackFile == "" {
			return fmt.Errorf("holidays.fallback_file is required for file source")
		}
	case "ics":
		if c.Holidays.ICSFile == "" {
			return fmt.Errorf("holidays.ics_file is required for ics source")
		}
	default:
		return fmt.Errorf("holidays.source must be 'nager', 'file' or 'ics', got '%s'", c.Holidays.Source)
	}
	if c.Holidays.ICSFile != "" && c.Holidays.ICSRegion == "" {
		return fmt.Errorf("holidays.ics_region is required with holidays.ics_file")
	}

	if _, err := c.Defaults.Settings(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for day, status := range c.Defaults.Seed {
		if _, err := dateutil.ParseWeekday(day); err != nil {
			return fmt.Errorf("defaults.seed: %w", err)
		}
		if _, err := attendance.ParseStatus(status); err != nil {
			return fmt.Errorf("defaults.seed.%s: %w", day, err)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got '%s'", c.Log.Level)
	}

	return nil
}

// Settings converts the defaults into a settings template with no user
func (d *DefaultsConfig) Settings() (attendance.Settings, error) {
	rounding, err := attendance.ParseRoundingMode(d.RoundingMode)
	if err != nil {
		return attendance.Settings{}, err
	}
	treatment, err := attendance.ParseHolidayTreatment(d.MonFriHolidayTreatment)
	if err != nil {
		return attendance.Settings{}, err
	}
	weekdays, err := attendance.ParseWeekdays(d.CreditWeekdays)
	if err != nil {
		return attendance.Settings{}, err
	}

	settings := attendance.Settings{
		RequiredPercent:        d.RequiredPercent,
		RoundingMode:           rounding,
		CreditWeekdays:         weekdays,
		MonFriHolidayTreatment: treatment,
		Country:                strings.ToUpper(d.Country),
		State:                  strings.ToUpper(d.State),
		Timezone:               d.Timezone,
	}
	if err := settings.Validate(); err != nil {
		return attendance.Settings{}, err
	}
	return settings, nil
}

// GetCacheTTL returns holiday cache TTL duration
func (c *HolidaysConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 24 * time.Hour
	}
	duration, err := time.ParseDuration(c.CacheTTL)
	if err != nil || duration <= 0 {
		return 24 * time.Hour
	}
	return duration
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Holidays.FallbackFile = os.ExpandEnv(c.Holidays.FallbackFile)
	c.Holidays.ICSFile = os.ExpandEnv(c.Holidays.ICSFile)
	c.Holidays.Redis.Password = os.ExpandEnv(c.Holidays.Redis.Password)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
