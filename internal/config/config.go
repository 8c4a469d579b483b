// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret is the fallback signing key. It is refused in release mode.
const DevJWTSecret = "dev-secret-change-me"

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode        string        `mapstructure:"GIN_MODE"`
	ServerHost     string        `mapstructure:"SERVER_HOST"`
	ServerPort     string        `mapstructure:"SERVER_PORT"`
	ServerTimeout  time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	AllowedOrigins []string      `mapstructure:"-"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Auth
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	JWTExpiry           time.Duration `mapstructure:"-"`
	PendingTokenExpiry  time.Duration `mapstructure:"-"`
	RateLimitRPS        float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int           `mapstructure:"RATE_LIMIT_BURST"`
	SeedAdminEmail      string        `mapstructure:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword   string        `mapstructure:"SEED_ADMIN_PASSWORD"`
	SeedTenantName      string        `mapstructure:"SEED_TENANT_NAME"`
	SeedTenantNamespace string        `mapstructure:"SEED_TENANT_NAMESPACE"`

	// Kubernetes
	DefaultNamespace  string   `mapstructure:"DEFAULT_NAMESPACE"`
	PlatformNamespace string   `mapstructure:"PLATFORM_NAMESPACE"`
	KubeConfigPath    string   `mapstructure:"KUBECONFIG"`
	AllowedNamespaces []string `mapstructure:"-"`

	// Observability backends
	PrometheusURL        string `mapstructure:"PROM_URL"`
	LokiURL              string `mapstructure:"LOKI_URL"`
	GrafanaURL           string `mapstructure:"GRAFANA_URL"`
	GrafanaDashboardUID  string `mapstructure:"GRAFANA_DASHBOARD_UID"`
	GrafanaDashboardSlug string `mapstructure:"GRAFANA_DASHBOARD_SLUG"`
	GrafanaToken         string `mapstructure:"GRAFANA_TOKEN"`

	// Notifications
	SMTPHost             string `mapstructure:"SMTP_HOST"`
	SMTPPort             int    `mapstructure:"SMTP_PORT"`
	SMTPUser             string `mapstructure:"SMTP_USER"`
	SMTPPass             string `mapstructure:"SMTP_PASS"`
	SMTPFrom             string `mapstructure:"SMTP_FROM"`
	AdminEmail           string `mapstructure:"ADMIN_EMAIL"`
	OnboardingWebhookURL string `mapstructure:"ONBOARDING_WEBHOOK_URL"`
	AlertsFallbackEmail  string `mapstructure:"ALERTS_FALLBACK_EMAIL"`

	// Cron Jobs
	ProvisioningRetrySchedule string `mapstructure:"PROVISIONING_RETRY_SCHEDULE"`
	ProvisioningMaxRetries    int    `mapstructure:"PROVISIONING_MAX_RETRIES"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("ALLOWED_ORIGINS", "https://rango-project.duckdns.org,http://rango-project.duckdns.org,http://localhost:3001")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "file:dev.db?_foreign_keys=on")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("JWT_EXP_HOURS", 12)
	v.SetDefault("PENDING_TOKEN_MINUTES", 15)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("SEED_ADMIN_EMAIL", "")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.SetDefault("SEED_TENANT_NAME", "Demo")
	v.SetDefault("SEED_TENANT_NAMESPACE", "default")

	v.SetDefault("DEFAULT_NAMESPACE", "default")
	v.SetDefault("PLATFORM_NAMESPACE", "")
	v.SetDefault("KUBECONFIG", "")
	v.SetDefault("ALLOWED_NAMESPACES", "")

	v.SetDefault("PROM_URL", "")
	v.SetDefault("LOKI_URL", "http://loki.monitoring.svc:3100")
	v.SetDefault("GRAFANA_URL", "")
	v.SetDefault("GRAFANA_DASHBOARD_UID", "")
	v.SetDefault("GRAFANA_DASHBOARD_SLUG", "kubernetes-app")
	v.SetDefault("GRAFANA_TOKEN", "")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "Smart DevOps <noreply@local>")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ONBOARDING_WEBHOOK_URL", "")
	v.SetDefault("ALERTS_FALLBACK_EMAIL", "")

	v.SetDefault("PROVISIONING_RETRY_SCHEDULE", "@every 5m")
	v.SetDefault("PROVISIONING_MAX_RETRIES", 5)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.JWTExpiry = time.Duration(v.GetInt("JWT_EXP_HOURS")) * time.Hour
	cfg.PendingTokenExpiry = time.Duration(v.GetInt("PENDING_TOKEN_MINUTES")) * time.Minute

	cfg.AllowedOrigins = SplitList(v.GetString("ALLOWED_ORIGINS"))
	cfg.AllowedNamespaces = SplitList(v.GetString("ALLOWED_NAMESPACES"))
	cfg.GrafanaURL = strings.TrimRight(cfg.GrafanaURL, "/")
	cfg.PrometheusURL = strings.TrimRight(cfg.PrometheusURL, "/")
	cfg.LokiURL = strings.TrimRight(cfg.LokiURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("FATAL: JWT_SECRET is not set")
	}
	if c.GinMode == "release" && c.JWTSecret == DevJWTSecret {
		return fmt.Errorf("FATAL: JWT_SECRET must be changed from the development default in release mode")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("FATAL: unsupported DB_DRIVER %q (expected sqlite or postgres)", c.DBDriver)
	}
	return nil
}

// NamespaceAllowed reports whether ns passes the ALLOWED_NAMESPACES guard.
// An empty allow-list admits every namespace.
func (c *Config) NamespaceAllowed(ns string) bool {
	if len(c.AllowedNamespaces) == 0 {
		return true
	}
	for _, allowed := range c.AllowedNamespaces {
		if allowed == ns {
			return true
		}
	}
	return false
}

// SplitList splits a comma separated env value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
