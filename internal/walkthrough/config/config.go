// config.go — static coordinator configuration: timeouts, thresholds, and
// the dashboard-origin allowlist (spec.md §6). Loaded from YAML
// (gopkg.in/yaml.v3, used across the pack by kubernaut, neurobridge, and
// statechartx) and validated with go-playground/validator/v10 (kubernaut).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the coordinator's static settings, defaulting to the design
// values from spec.md §4.1. Of the timing and threshold fields, only
// NavigationTimeout (navigation watcher), ElementFindTimeout and
// MaxElementFindRetries (page controller) are read by other packages.
// SessionTimeout, TabReadyTimeout, MaxActionRetries, MaxHealingRetries and
// the HealingConfidence* fields are validated on load but not consulted:
// the machine, coordinator and healer use the wtypes constants directly.
type Config struct {
	SessionTimeout        time.Duration `yaml:"sessionTimeout" validate:"required,min=1m"`
	NavigationTimeout     time.Duration `yaml:"navigationTimeout" validate:"required"`
	ElementFindTimeout    time.Duration `yaml:"elementFindTimeout" validate:"required"`
	TabReadyTimeout       time.Duration `yaml:"tabReadyTimeout" validate:"required"`
	MaxActionRetries      int           `yaml:"maxActionRetries" validate:"min=1"`
	MaxElementFindRetries int           `yaml:"maxElementFindRetries" validate:"min=0"`
	MaxHealingRetries     int           `yaml:"maxHealingRetries" validate:"min=0"`

	HealingConfidenceHigh       float64 `yaml:"healingConfidenceHigh" validate:"gt=0,lte=1"`
	HealingConfidenceMediumHigh float64 `yaml:"healingConfidenceMediumHigh" validate:"gt=0,lte=1"`
	HealingConfidenceMedium     float64 `yaml:"healingConfidenceMedium" validate:"gt=0,lte=1"`

	// AllowedDashboardOrigins allowlists origins the dashboard origin
	// gateway accepts START_WALKTHROUGH messages from (spec.md §6).
	AllowedDashboardOrigins []string `yaml:"allowedDashboardOrigins" validate:"required,min=1"`

	// TransportMaxRetries bounds the page->coordinator transport retry
	// loop (spec.md §5).
	TransportMaxRetries int           `yaml:"transportMaxRetries" validate:"min=1"`
	TransportBaseDelay  time.Duration `yaml:"transportBaseDelay" validate:"required"`

	RedisAddr string `yaml:"redisAddr" validate:"required"`
	HTTPAddr  string `yaml:"httpAddr" validate:"required"`
}

// Default returns the design defaults from spec.md §4.1.
func Default() Config {
	return Config{
		SessionTimeout:              30 * time.Minute,
		NavigationTimeout:           30 * time.Second,
		ElementFindTimeout:          5 * time.Second,
		TabReadyTimeout:             10 * time.Second,
		MaxActionRetries:            3,
		MaxElementFindRetries:       2,
		MaxHealingRetries:           1,
		HealingConfidenceHigh:       0.85,
		HealingConfidenceMediumHigh: 0.70,
		HealingConfidenceMedium:    0.60,
		AllowedDashboardOrigins:    []string{"https://app.example.com"},
		TransportMaxRetries:        3,
		TransportBaseDelay:         500 * time.Millisecond,
		RedisAddr:                  "127.0.0.1:6379",
		HTTPAddr:                   ":8787",
	}
}

var validate = validator.New()

// Load reads a YAML config file over Default(), so any field the file omits
// keeps its default value, and then validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
