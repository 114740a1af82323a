// Package config loads runtime settings from .env, an optional config file
// and CFB_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cfb-ratings/server/rating"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Elo      EloConfig      `mapstructure:"elo"`
	Glicko   GlickoConfig   `mapstructure:"glicko"`
}

type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type EloConfig struct {
	Decay         float64 `mapstructure:"decay"`
	K             float64 `mapstructure:"k"`
	HomeAdvantage float64 `mapstructure:"home_advantage"`
	MarginBase    float64 `mapstructure:"margin_base"`
	Scaling       string  `mapstructure:"scaling"`
}

type GlickoConfig struct {
	Tau       float64 `mapstructure:"tau"`
	Tolerance float64 `mapstructure:"tolerance"`
}

// Params converts the Elo section into engine parameters.
func (c EloConfig) Params() rating.EloParams {
	return rating.EloParams{
		K:             c.K,
		HomeAdvantage: c.HomeAdvantage,
		MarginBase:    c.MarginBase,
		Scaling:       rating.Scaling(strings.ToLower(strings.TrimSpace(c.Scaling))),
	}
}

// Load reads .env (if present), then path (if non-empty), then the
// environment. CFB_ELO_DECAY overrides elo.decay and so on. DATABASE_URL is
// honoured as a fallback for database.url.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CFB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", "CFB_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind database url: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "30s")

	v.SetDefault("elo.decay", rating.EloDecayDefault)
	v.SetDefault("elo.k", rating.EloKFactor)
	v.SetDefault("elo.home_advantage", rating.EloHomeAdvantage)
	v.SetDefault("elo.margin_base", rating.EloMarginBase)
	v.SetDefault("elo.scaling", string(rating.ScalingMargin))

	v.SetDefault("glicko.tau", rating.DefaultTau)
	v.SetDefault("glicko.tolerance", rating.ConvergenceTolerance)
}

// Validate checks the rating parameters. The database URL is checked by the
// commands that need it.
func (c *Config) Validate() error {
	if err := rating.ValidateDecay(c.Elo.Decay); err != nil {
		return fmt.Errorf("elo.decay: %w", err)
	}
	if err := c.Elo.Params().Validate(); err != nil {
		return err
	}
	if !(c.Glicko.Tau > 0) {
		return fmt.Errorf("glicko.tau must be positive, got %v", c.Glicko.Tau)
	}
	if !(c.Glicko.Tolerance > 0) {
		return fmt.Errorf("glicko.tolerance must be positive, got %v", c.Glicko.Tolerance)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	return nil
}
