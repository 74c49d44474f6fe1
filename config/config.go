// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/lamportlabs/sol402/types"
)

// Config is the process-wide configuration surface. Every field has an
// environment binding so deployments configure the module without code.
type Config struct {
	// Network selects the Solana cluster.
	Network types.Network `env:"SOL402_NETWORK" envDefault:"solana-devnet"`

	// RPCURL overrides the cluster's default RPC endpoint.
	RPCURL string `env:"SOL402_RPC_URL"`

	// Recipient is the server-side payment address stamped into requirements.
	Recipient string `env:"SOL402_RECIPIENT"`

	// Commitment is the default confirmation level for submissions and
	// verifications.
	Commitment string `env:"SOL402_COMMITMENT" envDefault:"confirmed"`

	// CacheEnabled toggles the verification cache.
	CacheEnabled bool `env:"SOL402_CACHE" envDefault:"true"`

	// CacheTTL bounds how long a verification verdict is reused.
	CacheTTL time.Duration `env:"SOL402_CACHE_TTL" envDefault:"5m"`

	// RPCTimeout bounds every single ledger round trip.
	RPCTimeout time.Duration `env:"SOL402_RPC_TIMEOUT" envDefault:"30s"`

	// ConfirmTimeout bounds the whole confirmation wait for one transaction.
	ConfirmTimeout time.Duration `env:"SOL402_CONFIRM_TIMEOUT" envDefault:"90s"`

	// MaxRetries bounds confirmation status polls.
	MaxRetries int `env:"SOL402_MAX_RETRIES" envDefault:"30"`

	// ChallengeTTL is the validity window stamped into issued requirements
	// as an absolute deadline. Zero disables deadlines.
	ChallengeTTL time.Duration `env:"SOL402_CHALLENGE_TTL" envDefault:"10m"`

	// LogLevel selects the zap level: debug, info, warn, error.
	LogLevel string `env:"SOL402_LOG_LEVEL" envDefault:"info"`

	// EnableMetrics registers the Prometheus collectors.
	EnableMetrics bool `env:"SOL402_METRICS" envDefault:"false"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("config parsing failed: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if !c.Network.Known() {
		return fmt.Errorf("unknown network %q", c.Network)
	}
	if _, err := types.ParseCommitment(c.Commitment); err != nil {
		return err
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when the cache is enabled")
	}
	return nil
}

// CommitmentLevel returns the parsed default commitment.
func (c *Config) CommitmentLevel() types.Commitment {
	level, err := types.ParseCommitment(c.Commitment)
	if err != nil {
		return types.CommitmentConfirmed
	}
	return level
}
