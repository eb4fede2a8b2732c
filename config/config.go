package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every externally supplied value the service needs. It is
// loaded once in main and passed down explicitly — no package-level state.
type Config struct {
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":5300"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Shared secret expected in the X-Api-Key header on every request.
	APIKey string `envconfig:"ESCROW_API_KEY" required:"true"`

	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Custodial escrow account on the Hive ledger. The active key may be
	// absent: balance inquiry still works, payouts are disabled.
	CustodialAccount   string `envconfig:"CUSTODIAL_ACCOUNT"`
	CustodialActiveWif string `envconfig:"CUSTODIAL_ACTIVE_WIF"`

	HiveAPIURL        string `envconfig:"HIVE_API_URL" default:"https://api.hive.blog"`
	BroadcastProxyURL string `envconfig:"BROADCAST_PROXY_URL"`

	SignerServiceURL string `envconfig:"SIGNER_SERVICE_URL"`

	GithubToken  string `envconfig:"GITHUB_TOKEN"`
	GithubAPIURL string `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`

	// Optional R2 bucket for archiving signed attestation payloads.
	R2AccountID       string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `envconfig:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string `envconfig:"R2_BUCKET_NAME"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// PayoutEnabled reports whether the custodial signing credential is present.
func (c *Config) PayoutEnabled() bool {
	return c.CustodialAccount != "" && c.CustodialActiveWif != ""
}

// ArchiveEnabled reports whether attestation payloads should be copied to R2.
func (c *Config) ArchiveEnabled() bool {
	return c.R2Bucket != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != ""
}
