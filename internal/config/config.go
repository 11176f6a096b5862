package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the service.
type Config struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	Database struct {
		URL             string        `yaml:"url"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnectAttempts int           `yaml:"connect_attempts"`
		RetryDelay      time.Duration `yaml:"retry_delay"`
		LogLevel        string        `yaml:"log_level"`
	} `yaml:"database"`

	Auth struct {
		TokenSecret  string `yaml:"token_secret"`
		TokenIssuer  string `yaml:"token_issuer"`
		SessionKey   string `yaml:"session_key"`
		SecureCookie bool   `yaml:"secure_cookie"`
	} `yaml:"auth"`

	OAuth2 OAuth2 `yaml:"oauth2"`

	Redis struct {
		Addr        string        `yaml:"addr"`
		Password    string        `yaml:"password"`
		DB          int           `yaml:"db"`
		CategoryTTL time.Duration `yaml:"category_ttl"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint       string `yaml:"endpoint"`
		PublicEndpoint string `yaml:"public_endpoint"`
		AccessKey      string `yaml:"access_key"`
		SecretKey      string `yaml:"secret_key"`
		Bucket         string `yaml:"bucket"`
		UseSSL         bool   `yaml:"use_ssl"`
	} `yaml:"minio"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// OAuth2 describes the external OAuth2 provider clients authenticate against.
type OAuth2 struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	AuthorizeURL string   `yaml:"authorize_url"`
	GrantType    string   `yaml:"grant_type"`
	Scopes       []string `yaml:"scopes"`
}

const minSessionKeyLen = 32

// Load reads .env (when present), the optional YAML file at path and finally
// environment overrides. An empty path falls back to ECOURSE_CONFIG and the
// default file names in the working directory.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{Env: "development", Port: "8080"}
	cfg.Database.MaxOpenConns = 25
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnectAttempts = 5
	cfg.Database.RetryDelay = 2 * time.Second
	cfg.Database.LogLevel = "warn"
	cfg.OAuth2.GrantType = "password"
	cfg.Redis.CategoryTTL = 5 * time.Minute
	cfg.Minio.Bucket = "ecourse"
	cfg.NATS.SubjectPrefix = "ecourse"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// FindConfigFile returns the first config file that exists, or "".
func FindConfigFile() string {
	if path := os.Getenv("ECOURSE_CONFIG"); path != "" {
		return path
	}
	for _, loc := range []string{"ecourse.yaml", "ecourse.yml"} {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

func (c *Config) applyEnv() {
	setString(&c.Env, "APP_ENV")
	setString(&c.Port, "PORT")

	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.LogLevel, "DB_LOG_LEVEL")
	setInt(&c.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&c.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS")

	setString(&c.Auth.TokenSecret, "TOKEN_SECRET")
	setString(&c.Auth.TokenIssuer, "TOKEN_ISSUER")
	setString(&c.Auth.SessionKey, "SESSION_KEY")
	setBool(&c.Auth.SecureCookie, "SECURE_COOKIE")

	setString(&c.OAuth2.ClientID, "OAUTH2_CLIENT_ID")
	setString(&c.OAuth2.ClientSecret, "OAUTH2_CLIENT_SECRET")
	setString(&c.OAuth2.TokenURL, "OAUTH2_TOKEN_URL")
	setString(&c.OAuth2.AuthorizeURL, "OAUTH2_AUTHORIZE_URL")
	setList(&c.OAuth2.Scopes, "OAUTH2_SCOPES")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.PublicEndpoint, "MINIO_PUBLIC_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	setBool(&c.Minio.UseSSL, "MINIO_USE_SSL")

	setString(&c.NATS.URL, "NATS_URL")
	setList(&c.CORS.AllowedOrigins, "CORS_ALLOWED_ORIGINS")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
}

// Validate reports the first setting that makes the service unable to start.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required (DATABASE_URL)")
	}
	if c.Auth.TokenSecret == "" {
		return errors.New("token secret is required (TOKEN_SECRET)")
	}
	if !c.IsDevelopment() && len(c.Auth.SessionKey) < minSessionKeyLen {
		return fmt.Errorf("session key must be at least %d bytes (SESSION_KEY)", minSessionKeyLen)
	}
	return nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
