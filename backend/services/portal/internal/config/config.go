package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	libconfig "utilitypay/backend/libs/config"
)

const (
	defaultPort       = "8080"
	defaultAPIBaseURL = "http://localhost:5000"
	defaultCookieName = "portal_session"
)

// Config defines portal configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"PORTAL_HTTP_PORT"`
	} `yaml:"http"`
	API struct {
		BaseURL string `yaml:"baseUrl" env:"PORTAL_API_BASE_URL"`
	} `yaml:"api"`
	HTTPClient struct {
		// 0 leaves outbound calls bounded only by the transport defaults.
		TimeoutSeconds int `yaml:"timeoutSeconds" env:"PORTAL_HTTP_TIMEOUT"`
	} `yaml:"httpClient"`
	Session struct {
		Secret        string `yaml:"secret" env:"PORTAL_SESSION_SECRET"`
		CookieName    string `yaml:"cookieName" env:"PORTAL_SESSION_COOKIE"`
		DefaultUserID int64  `yaml:"defaultUserId" env:"PORTAL_DEFAULT_USER_ID"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr" env:"PORTAL_REDIS_ADDR"`
		Password string `yaml:"password" env:"PORTAL_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"PORTAL_REDIS_DB"`
	} `yaml:"redis"`
	Submission struct {
		TTLSeconds int `yaml:"ttlSeconds" env:"PORTAL_SUBMISSION_TTL"`
	} `yaml:"submission"`
	Receipt struct {
		DateLayout string `yaml:"dateLayout" env:"PORTAL_RECEIPT_DATE_LAYOUT"`
	} `yaml:"receipt"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.API.BaseURL = defaultAPIBaseURL
	cfg.Session.CookieName = defaultCookieName
	cfg.Session.DefaultUserID = 1
	cfg.Submission.TTLSeconds = 600
	cfg.Receipt.DateLayout = "2006-01-02"

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return errors.New("config: api base url required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid api base url %q", base)
	}
	if c.HTTPClient.TimeoutSeconds < 0 {
		return errors.New("config: http timeout must not be negative")
	}
	if c.Session.DefaultUserID < 0 {
		return errors.New("config: default user id must not be negative")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		c.Session.CookieName = defaultCookieName
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HTTPTimeout returns the outbound client timeout; zero means none.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPClient.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.HTTPClient.TimeoutSeconds) * time.Second
}

// SubmissionTTL returns how long submission tokens are remembered.
func (c *Config) SubmissionTTL() time.Duration {
	if c.Submission.TTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Submission.TTLSeconds) * time.Second
}

// RedisEnabled reports whether the submission ledger should live in redis.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
