package app

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/placementbot/core/config"
	"github.com/m3rciful/placementbot/internal/reference"
)

// PaymentConfig holds the deployment specific payment details shown to users.
type PaymentConfig struct {
	CBEAccount      string `yaml:"cbe_account" envconfig:"CBE_ACCOUNT"`
	TeleBirrAccount string `yaml:"telebirr_account" envconfig:"TELEBIRR_ACCOUNT"`
	// AccessLink is sent to a student once their payment is verified.
	AccessLink      string `yaml:"access_link" envconfig:"ACCESS_LINK"`
	ReferencePrefix string `yaml:"reference_prefix" envconfig:"REFERENCE_PREFIX"`
}

// SessionConfig bounds how long an abandoned registration dialogue is kept.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// Config is the full bot configuration: the reusable core plus app sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Payment PaymentConfig `yaml:"payment"`
	Session SessionConfig `yaml:"session"`
}

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepInterval = 10 * time.Minute
)

// LoadConfig reads and validates the configuration. See coreconfig.LoadInto
// for the order of sources.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = defaultSessionTTL
	}
	if c.Session.SweepInterval <= 0 {
		c.Session.SweepInterval = defaultSweepInterval
	}
	if c.Payment.ReferencePrefix == "" {
		c.Payment.ReferencePrefix = reference.DefaultPrefix
	}
	return nil
}
