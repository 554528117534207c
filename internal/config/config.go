package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

// DevSessionSecret keeps local development usable without any secret set.
// Validate rejects it in production.
const DevSessionSecret = "dev-admin-session-secret"

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password", DevSessionSecret,
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SecretSource names where the session signing secret was resolved from.
type SecretSource string

const (
	SecretFromAdmin       SecretSource = "ADMIN_SESSION_SECRET"
	SecretFromServiceRole SecretSource = "SERVICE_ROLE_KEY"
	SecretFromFallback    SecretSource = "fallback"
)

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	AppEnv            string `env:"APP_ENV" envDefault:"development"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	AdminSessionKey   string `env:"ADMIN_SESSION_SECRET"`
	ServiceRoleKey    string `env:"SERVICE_ROLE_KEY"`
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	DatabaseURL       string `env:"DATABASE_URL"`
	DatabasePublicURL string `env:"DATABASE_PUBLIC_URL"`
	RedisURL          string `env:"REDIS_URL"`
	PublicBaseURL     string `env:"PUBLIC_BASE_URL"`
	JobsAPIBaseURL    string `env:"JOBS_API_BASE_URL"`
	FallbackStorePath string `env:"FALLBACK_STORE_PATH" envDefault:".tmp/referral-pages.json"`
	DefaultPipelineID string `env:"DEFAULT_PIPELINE_ID" envDefault:"default"`
	AdminStaticDir    string `env:"ADMIN_STATIC_DIR" envDefault:"static/admin"`
	Tables            Tables
}

// Tables holds table and column overrides for schemas that mirror the CRM
// under different names.
type Tables struct {
	ReferralPages      string `env:"REFERRAL_PAGES_TABLE" envDefault:"referral_pages"`
	Companies          string `env:"COMPANIES_TABLE" envDefault:"hubspot_companies"`
	CompanyNameColumn  string `env:"COMPANY_NAME_COLUMN" envDefault:"name"`
	Deals              string `env:"DEALS_TABLE" envDefault:"hubspot_deals"`
	DealCompanyColumn  string `env:"DEAL_COMPANY_COLUMN" envDefault:"company_id"`
	DealPipelineColumn string `env:"DEAL_PIPELINE_COLUMN" envDefault:"pipeline"`
	DealNameColumn     string `env:"DEAL_NAME_COLUMN" envDefault:"name"`
	DealStageColumn    string `env:"DEAL_STAGE_COLUMN" envDefault:"stage"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether the process runs in a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || os.Getenv("FLY_APP_NAME") != ""
}

// SessionSecret resolves the admin cookie signing secret: the explicit admin
// secret, else the service-role key, else the development fallback.
func (c *Config) SessionSecret() (string, SecretSource) {
	if c.AdminSessionKey != "" {
		return c.AdminSessionKey, SecretFromAdmin
	}
	if c.ServiceRoleKey != "" {
		return c.ServiceRoleKey, SecretFromServiceRole
	}
	return DevSessionSecret, SecretFromFallback
}

// CRMDatabaseURL is the connection used for read-only CRM lookups.
func (c *Config) CRMDatabaseURL() string {
	if c.DatabasePublicURL != "" {
		return c.DatabasePublicURL
	}
	return c.DatabaseURL
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if err := c.Tables.validate(); err != nil {
		return err
	}

	secret, source := c.SessionSecret()
	if source == SecretFromFallback && (isProduction || !strings.EqualFold(c.AppEnv, "development")) {
		return fmt.Errorf("no admin session secret configured: set ADMIN_SESSION_SECRET or SERVICE_ROLE_KEY outside development (APP_ENV=%q)", c.AppEnv)
	}

	if isProduction {
		if err := validateSecret(string(source), secret); err != nil {
			return err
		}

		if c.AdminPassword == "" && c.AdminPasswordHash == "" {
			log.Warn().Msg("ADMIN_PASSWORD is empty in production: admin login will respond with a configuration error")
		}
		if c.JobsAPIBaseURL == "" {
			log.Warn().Msg("JOBS_API_BASE_URL is empty in production: the company-jobs origin follows X-Forwarded-Host, which must be set by a trusted proxy")
		}
		if c.DatabaseURL == "" {
			log.Warn().Msg("DATABASE_URL is empty in production: referral pages persist to the local fallback file only")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func (t Tables) validate() error {
	fields := map[string]string{
		"REFERRAL_PAGES_TABLE": t.ReferralPages,
		"COMPANIES_TABLE":      t.Companies,
		"COMPANY_NAME_COLUMN":  t.CompanyNameColumn,
		"DEALS_TABLE":          t.Deals,
		"DEAL_COMPANY_COLUMN":  t.DealCompanyColumn,
		"DEAL_PIPELINE_COLUMN": t.DealPipelineColumn,
		"DEAL_NAME_COLUMN":     t.DealNameColumn,
		"DEAL_STAGE_COLUMN":    t.DealStageColumn,
	}
	for name, value := range fields {
		if !identifierRegex.MatchString(value) {
			return fmt.Errorf("%s must be a plain SQL identifier, got %q", name, value)
		}
	}
	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
