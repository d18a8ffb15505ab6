package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Web           WebConfig  `yaml:"web"`
	Auth          AuthConfig `yaml:"auth"`
	HIBP          HIBPConfig `yaml:"hibp"`
	EntitiesLimit int        `yaml:"entities_limit"`
}

type WebConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type AuthConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type HIBPConfig struct {
	APIURL    string        `yaml:"api_url"`
	UIURL     string        `yaml:"ui_url"`
	UserAgent string        `yaml:"user_agent"`
	TestEmail string        `yaml:"test_email"`
	Timeout   time.Duration `yaml:"timeout"`
}

const (
	defaultEntitiesLimit = 100

	defaultAPIURL = "https://haveibeenpwned.com/api/v3/breachedaccount/%s?truncateResponse=%s"
	defaultUIURL  = "https://haveibeenpwned.com/account/%s"

	// HIBP returns 403 Forbidden "API request must include a user agent"
	// when using angle brackets, only round brackets are acceptable.
	defaultUserAgent = "BreachWatch HIBP Relay (support@breachwatch.io)"

	defaultTestEmail = "user@example.com"
)

// Load builds the configuration from an optional YAML defaults file
// (CONFIG_FILE) overridden by environment variables. The entities limit is
// validated here so that misconfiguration fails at startup rather than
// per request.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Web: WebConfig{ListenAddr: ":8080"},
		HIBP: HIBPConfig{
			APIURL:    defaultAPIURL,
			UIURL:     defaultUIURL,
			UserAgent: defaultUserAgent,
			TestEmail: defaultTestEmail,
			Timeout:   30 * time.Second,
		},
		EntitiesLimit: defaultEntitiesLimit,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if v := os.Getenv("WEB_LISTEN_ADDR"); v != "" {
		cfg.Web.ListenAddr = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.SecretKey = v
	}
	if v := os.Getenv("HIBP_API_URL"); v != "" {
		cfg.HIBP.APIURL = v
	}
	if v := os.Getenv("HIBP_UI_URL"); v != "" {
		cfg.HIBP.UIURL = v
	}
	if v := os.Getenv("HIBP_USER_AGENT"); v != "" {
		cfg.HIBP.UserAgent = v
	}
	if v := os.Getenv("HIBP_TEST_EMAIL"); v != "" {
		cfg.HIBP.TestEmail = v
	}
	if v := os.Getenv("HIBP_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing HIBP_TIMEOUT: %w", err)
		}
		cfg.HIBP.Timeout = timeout
	}
	if v := os.Getenv("CTR_ENTITIES_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing CTR_ENTITIES_LIMIT: %w", err)
		}
		cfg.EntitiesLimit = limit
	}

	if cfg.EntitiesLimit <= 0 {
		return nil, fmt.Errorf("entities limit must be positive, got %d", cfg.EntitiesLimit)
	}

	return cfg, nil
}
