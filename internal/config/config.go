package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the monitor
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Security SecurityConfig
	Disks    DiskConfig
	Log      LogConfig
}

type ServerConfig struct {
	Address string
}

type AuthConfig struct {
	Enabled     bool
	Secret      string
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedIPs     []string `mapstructure:"allowed_ips"`
}

type DiskConfig struct {
	AllPartitions bool          `mapstructure:"all_partitions"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout"`
}

type LogConfig struct {
	Level string
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:8080")
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_expiry", 90*24*time.Hour)
	v.SetDefault("security.allowed_origins", []string{})
	v.SetDefault("security.allowed_ips", []string{})
	v.SetDefault("disks.all_partitions", false)
	v.SetDefault("disks.poll_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
}

// Load reads configuration from file (optional) and SYSMON_* environment variables
func Load(file string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("sysmon")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the settings held by v
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Address) == "" {
		errs = append(errs, errors.New("server.address must not be empty"))
	}
	if c.Auth.TokenExpiry <= 0 {
		errs = append(errs, errors.New("auth.token_expiry must be positive"))
	}
	if c.Disks.PollTimeout <= 0 {
		errs = append(errs, errors.New("disks.poll_timeout must be positive"))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the configured logrus level, defaulting to info
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
