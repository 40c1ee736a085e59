// Package config handles loading and validation of service configuration.
// Supports both development (env vars or CONFIG_FILE) and production
// (Secret Manager for signing secrets) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"gopkg.in/yaml.v3"

	"reqmatch/internal/security"
)

// minSecretLen is the shortest accepted HMAC signing secret.
const minSecretLen = 32

// Config holds all service configuration.
// Environment determines whether the JWT secret may come from env vars
// (development) or must be read from Secret Manager (production).
type Config struct {
	// Server settings
	Port        string `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"` // "development" or "production"
	LogLevel    string `json:"log_level" yaml:"log_level"`     // "debug", "info", "warn", "error"

	// Optional surfaces
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
	MCPEnabled     bool `json:"mcp_enabled" yaml:"mcp_enabled"`

	// GCP settings (required in production when a secret id is set)
	GCPProject string `json:"gcp_project" yaml:"gcp_project"`

	Auth AuthConfig `json:"auth" yaml:"auth"`
}

// AuthConfig configures request authentication. Both mechanisms are
// optional; with neither, every request is anonymous.
type AuthConfig struct {
	JWTSecret   string        `json:"jwt_secret" yaml:"jwt_secret"`
	JWTSecretID string        `json:"jwt_secret_id" yaml:"jwt_secret_id"` // Secret Manager secret name
	JWTIssuer   string        `json:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `json:"jwt_audience" yaml:"jwt_audience"`
	JWTLeeway   time.Duration `json:"jwt_leeway" yaml:"jwt_leeway"`

	APIKeys []APIKeyConfig `json:"api_keys" yaml:"api_keys"`
}

// APIKeyConfig is one static bearer key.
type APIKeyConfig struct {
	Key     string   `json:"key" yaml:"key"`
	Subject string   `json:"subject" yaml:"subject"`
	Roles   []string `json:"roles" yaml:"roles"`
}

// SecretAccessor reads the latest version of a named secret.
type SecretAccessor interface {
	AccessSecret(ctx context.Context, name string) ([]byte, error)
}

// Load reads configuration from file or environment, then resolves
// secrets from Secret Manager when configured.
// Priority: CONFIG_FILE (if set) → ENV vars.
// Validates all fields and returns an error if any are invalid.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, secretManagerAccessor{})
}

func load(ctx context.Context, secrets SecretAccessor) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		cfg, err = loadFromFile(configPath)
	} else {
		cfg, err = loadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWTSecretID != "" {
		if err := cfg.loadJWTSecret(ctx, secrets); err != nil {
			return nil, fmt.Errorf("loading jwt secret: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON or YAML file, chosen by
// extension. Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Port = withDefault(cfg.Port, "8080")
	cfg.Environment = withDefault(cfg.Environment, "development")
	cfg.LogLevel = withDefault(cfg.LogLevel, "info")
	return cfg, nil
}

// loadFromEnv reads configuration from individual environment variables.
func loadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		Auth: AuthConfig{
			JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
			JWTSecretID: os.Getenv("AUTH_JWT_SECRET_ID"),
			JWTIssuer:   os.Getenv("AUTH_JWT_ISSUER"),
			JWTAudience: os.Getenv("AUTH_JWT_AUDIENCE"),
		},
	}

	var err error
	if cfg.MetricsEnabled, err = envBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.MCPEnabled, err = envBool("MCP_ENABLED", true); err != nil {
		return nil, err
	}

	if leeway := os.Getenv("AUTH_JWT_LEEWAY"); leeway != "" {
		if cfg.Auth.JWTLeeway, err = time.ParseDuration(leeway); err != nil {
			return nil, fmt.Errorf("parsing AUTH_JWT_LEEWAY: %w", err)
		}
	}

	// API keys are a JSON array: [{"key":"...","subject":"...","roles":["editor"]}]
	if keysJSON := os.Getenv("AUTH_API_KEYS"); keysJSON != "" {
		if err := json.Unmarshal([]byte(keysJSON), &cfg.Auth.APIKeys); err != nil {
			return nil, fmt.Errorf("parsing AUTH_API_KEYS JSON: %w", err)
		}
	}

	return cfg, nil
}

// defaults returns the values a config file may leave out.
func defaults() *Config {
	return &Config{
		MetricsEnabled: true,
		MCPEnabled:     true,
	}
}

// loadJWTSecret fetches the signing secret from Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
func (c *Config) loadJWTSecret(ctx context.Context, secrets SecretAccessor) error {
	if c.GCPProject == "" {
		return fmt.Errorf("GCP_PROJECT required to read secret %s", c.Auth.JWTSecretID)
	}
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.GCPProject, c.Auth.JWTSecretID)

	data, err := secrets.AccessSecret(ctx, name)
	if err != nil {
		return err
	}
	c.Auth.JWTSecret = strings.TrimSpace(string(data))
	return nil
}

// validate checks that all configuration fields are usable.
func (c *Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	switch c.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("environment must be development or production, got %q", c.Environment)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	// Production signing secrets come from Secret Manager only
	if c.Environment == "production" && c.Auth.JWTSecret != "" && c.Auth.JWTSecretID == "" {
		return fmt.Errorf("jwt_secret_id is required in production; plaintext jwt_secret is not allowed")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < minSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes", minSecretLen)
	}
	if c.Auth.JWTLeeway < 0 {
		return fmt.Errorf("jwt_leeway must not be negative")
	}

	seen := make(map[string]bool, len(c.Auth.APIKeys))
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" {
			return fmt.Errorf("api_keys[%d]: key is required", i)
		}
		if k.Subject == "" {
			return fmt.Errorf("api_keys[%d]: subject is required", i)
		}
		if seen[k.Key] {
			return fmt.Errorf("api_keys[%d]: duplicate key for subject %s", i, k.Subject)
		}
		seen[k.Key] = true
	}

	return nil
}

// BuildAuthenticator creates the request authenticator from the auth
// settings: JWT bearer tokens first, then static API keys. It returns nil
// when neither is configured.
func (c *Config) BuildAuthenticator() (security.Authenticator, error) {
	var chain security.Chain

	if c.Auth.JWTSecret != "" {
		jwtAuth, err := security.NewJWTAuthenticator(c.JWTConfig())
		if err != nil {
			return nil, fmt.Errorf("creating jwt authenticator: %w", err)
		}
		chain = append(chain, jwtAuth)
	}

	if len(c.Auth.APIKeys) > 0 {
		keys := make([]security.APIKey, len(c.Auth.APIKeys))
		for i, k := range c.Auth.APIKeys {
			keys[i] = security.APIKey{Key: k.Key, Subject: k.Subject, Roles: k.Roles}
		}
		chain = append(chain, security.NewAPIKeyAuthenticator(keys))
	}

	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

// JWTConfig returns the token settings for security.NewJWTAuthenticator.
func (c *Config) JWTConfig() security.JWTConfig {
	return security.JWTConfig{
		Secret:   []byte(c.Auth.JWTSecret),
		Issuer:   c.Auth.JWTIssuer,
		Audience: c.Auth.JWTAudience,
		Leeway:   c.Auth.JWTLeeway,
	}
}

// secretManagerAccessor reads secrets from GCP Secret Manager.
type secretManagerAccessor struct{}

func (secretManagerAccessor) AccessSecret(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", name, err)
	}
	return result.Payload.Data, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envBool parses a boolean environment variable, returning defaultVal when unset.
func envBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}
