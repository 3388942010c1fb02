// Package config loads and validates the pilot configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"coinflip-pilot/internal/domain"
)

// Config is the full YAML configuration. Field ranges mirror the risk
// engine's declared domains; violations surface before any betting starts.
type Config struct {
	Session struct {
		Name string `yaml:"name" default:"default"`
	} `yaml:"session"`

	Betting struct {
		InitialBetPct        float64 `yaml:"initial_bet_pct" default:"0.01" validate:"gt=0,lte=1"`
		LossMultiplier       float64 `yaml:"loss_multiplier" default:"2.5" validate:"gte=1"`
		MinBetAmount         float64 `yaml:"min_bet_amount" default:"1" validate:"gte=0"`
		MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" default:"10" validate:"gte=1"`
		BetBaseReference     string  `yaml:"bet_base_reference" default:"current" validate:"oneof=current starting"`
	} `yaml:"betting"`

	Risk struct {
		MaxBetPct          float64 `yaml:"max_bet_pct" default:"0.1" validate:"gt=0,lte=1"`
		EnableStopLoss     bool    `yaml:"enable_stop_loss" default:"true"`
		StopLossPct        float64 `yaml:"stop_loss_pct" default:"0.5" validate:"gt=0,lte=1"`
		EnableProfitTarget bool    `yaml:"enable_profit_target"`
		ProfitTargetPct    float64 `yaml:"profit_target_pct" default:"1.0" validate:"gt=0"`
		EnableTimeLimit    bool    `yaml:"enable_time_limit"`
		TimeLimitHours     float64 `yaml:"time_limit_hours" default:"24" validate:"gt=0"`
	} `yaml:"risk"`

	Gateway struct {
		URL            string        `yaml:"url" validate:"required"`
		Channel        string        `yaml:"channel" validate:"required"`
		ResultTimeout  time.Duration `yaml:"result_timeout" default:"15s" validate:"gt=0"`
		CommandRetries int           `yaml:"command_retries" default:"3" validate:"gte=1"`
		BetDelayMin    time.Duration `yaml:"bet_delay_min" default:"8s" validate:"gte=0"`
		BetDelayMax    time.Duration `yaml:"bet_delay_max" default:"15s" validate:"gte=0"`
	} `yaml:"gateway"`

	Verification struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		CheckInterval time.Duration `yaml:"check_interval" default:"5s" validate:"gt=0"`
	} `yaml:"verification"`

	Storage struct {
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen" default:":9100"`
	} `yaml:"metrics"`
}

// Load reads, defaults and validates a YAML configuration file.
// Any out-of-range field wraps domain.ErrInvalidConfig.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse defaults and validates raw YAML bytes.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.Gateway.BetDelayMax < c.Gateway.BetDelayMin {
		return nil, fmt.Errorf("%w: bet_delay_max below bet_delay_min", domain.ErrInvalidConfig)
	}
	return &c, nil
}

// RiskConfig maps the betting and risk sections onto the engine's
// configuration record.
func (c *Config) RiskConfig() domain.RiskConfig {
	return domain.RiskConfig{
		InitialBetPct:        c.Betting.InitialBetPct,
		LossMultiplier:       c.Betting.LossMultiplier,
		MinBetAmount:         c.Betting.MinBetAmount,
		MaxConsecutiveLosses: c.Betting.MaxConsecutiveLosses,
		BetBaseReference:     domain.BetBaseReference(c.Betting.BetBaseReference),
		MaxBetPct:            c.Risk.MaxBetPct,
		EnableStopLoss:       c.Risk.EnableStopLoss,
		StopLossPct:          c.Risk.StopLossPct,
		EnableProfitTarget:   c.Risk.EnableProfitTarget,
		ProfitTargetPct:      c.Risk.ProfitTargetPct,
		EnableTimeLimit:      c.Risk.EnableTimeLimit,
		TimeLimit:            time.Duration(c.Risk.TimeLimitHours * float64(time.Hour)),
	}
}
