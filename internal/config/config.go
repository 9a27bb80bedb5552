package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/irisworks/jama-mcp/internal/ratelimit"
)

// Config is the merged runtime configuration. Precedence from lowest to
// highest: built-in defaults, the TOML config file, environment variables.
type Config struct {
	// URL is the Jama instance root, e.g. https://example.jamacloud.com.
	URL string

	// OAuth client credentials. Ignored when Token is set.
	ClientID     string
	ClientSecret string

	// Token is a pre-issued bearer token. Takes precedence over OAuth.
	Token string

	// CredentialsSecret names an AWS Secrets Manager secret holding
	// client_id/client_secret JSON. Used when neither Token nor ClientID
	// is set directly.
	CredentialsSecret string

	VerifySSL bool

	// MockMode serves a seeded local workspace instead of a live instance.
	MockMode bool
	MockDB   string

	// RateLimit is the outgoing request budget in requests per second.
	RateLimit float64

	// MetricsAddr exposes Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string

	// Attachment archive destination. S3 is used when Bucket is set,
	// otherwise Dir. With neither, archiving is disabled. Endpoint and
	// PathStyle support MinIO-compatible stores.
	ArchiveDir         string
	ArchiveS3Bucket    string
	ArchiveS3Prefix    string
	ArchiveS3Region    string
	ArchiveS3Endpoint  string
	ArchiveS3PathStyle bool

	LogLevel string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		VerifySSL: true,
		MockDB:    "jama-mock.db",
		RateLimit: ratelimit.DefaultRate,
		LogLevel:  "info",
	}
}

// fileConfig maps the TOML config file. All keys are optional; only keys
// present in the file override the running config.
type fileConfig struct {
	URL          string  `toml:"url"`
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	Token        string  `toml:"token"`
	VerifySSL    bool    `toml:"verify_ssl"`
	MockMode     bool    `toml:"mock_mode"`
	MockDB       string  `toml:"mock_db"`
	RateLimit    float64 `toml:"rate_limit"`
	MetricsAddr  string  `toml:"metrics_addr"`
	LogLevel     string  `toml:"log_level"`

	Archive struct {
		Dir         string `toml:"dir"`
		S3Bucket    string `toml:"s3_bucket"`
		S3Prefix    string `toml:"s3_prefix"`
		S3Region    string `toml:"s3_region"`
		S3Endpoint  string `toml:"s3_endpoint"`
		S3PathStyle bool   `toml:"s3_path_style"`
	} `toml:"archive"`

	AWS struct {
		CredentialsSecret string `toml:"credentials_secret"`
	} `toml:"aws"`
}

// Load builds the runtime config. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (Config, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with caller overrides applied between the environment
// pass and validation. The CLI uses it to apply command-line flags, which
// take precedence over both the file and the environment.
func LoadWith(path string, override func(*Config)) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("client_id") {
		cfg.ClientID = strings.TrimSpace(raw.ClientID)
	}
	if meta.IsDefined("client_secret") {
		cfg.ClientSecret = strings.TrimSpace(raw.ClientSecret)
	}
	if meta.IsDefined("token") {
		cfg.Token = strings.TrimSpace(raw.Token)
	}
	if meta.IsDefined("verify_ssl") {
		cfg.VerifySSL = raw.VerifySSL
	}
	if meta.IsDefined("mock_mode") {
		cfg.MockMode = raw.MockMode
	}
	if meta.IsDefined("mock_db") {
		cfg.MockDB = strings.TrimSpace(raw.MockDB)
	}
	if meta.IsDefined("rate_limit") {
		cfg.RateLimit = raw.RateLimit
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("archive", "dir") {
		cfg.ArchiveDir = strings.TrimSpace(raw.Archive.Dir)
	}
	if meta.IsDefined("archive", "s3_bucket") {
		cfg.ArchiveS3Bucket = strings.TrimSpace(raw.Archive.S3Bucket)
	}
	if meta.IsDefined("archive", "s3_prefix") {
		cfg.ArchiveS3Prefix = strings.TrimSpace(raw.Archive.S3Prefix)
	}
	if meta.IsDefined("archive", "s3_region") {
		cfg.ArchiveS3Region = strings.TrimSpace(raw.Archive.S3Region)
	}
	if meta.IsDefined("archive", "s3_endpoint") {
		cfg.ArchiveS3Endpoint = strings.TrimSpace(raw.Archive.S3Endpoint)
	}
	if meta.IsDefined("archive", "s3_path_style") {
		cfg.ArchiveS3PathStyle = raw.Archive.S3PathStyle
	}
	if meta.IsDefined("aws", "credentials_secret") {
		cfg.CredentialsSecret = strings.TrimSpace(raw.AWS.CredentialsSecret)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.URL, "JAMA_URL")
	setString(&cfg.ClientID, "JAMA_CLIENT_ID")
	setString(&cfg.ClientSecret, "JAMA_CLIENT_SECRET")
	setString(&cfg.Token, "JAMA_TOKEN")
	setString(&cfg.CredentialsSecret, "JAMA_CREDENTIALS_SECRET")
	setString(&cfg.MockDB, "JAMA_MOCK_DB")
	setString(&cfg.MetricsAddr, "JAMA_MCP_METRICS_ADDR")
	setString(&cfg.ArchiveDir, "JAMA_ARCHIVE_DIR")
	setString(&cfg.ArchiveS3Bucket, "JAMA_ARCHIVE_S3_BUCKET")
	setString(&cfg.ArchiveS3Prefix, "JAMA_ARCHIVE_S3_PREFIX")
	setString(&cfg.ArchiveS3Region, "JAMA_ARCHIVE_S3_REGION")
	setString(&cfg.ArchiveS3Endpoint, "JAMA_ARCHIVE_S3_ENDPOINT")
	setString(&cfg.LogLevel, "JAMA_LOG_LEVEL")

	if err := setBool(&cfg.VerifySSL, "JAMA_VERIFY_SSL"); err != nil {
		return err
	}
	if err := setBool(&cfg.ArchiveS3PathStyle, "JAMA_ARCHIVE_S3_PATH_STYLE"); err != nil {
		return err
	}
	if err := setBool(&cfg.MockMode, "JAMA_MOCK_MODE"); err != nil {
		return err
	}
	return setFloat(&cfg.RateLimit, "JAMA_RATE_LIMIT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("load config: %s=%q is not a boolean", key, v)
	}
	*dst = b
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("load config: %s=%q is not a number", key, v)
	}
	*dst = f
	return nil
}

// Validate checks that the config can actually start a server. Mock mode
// needs no connection settings.
func (c Config) Validate() error {
	if c.RateLimit <= 0 {
		return fmt.Errorf("load config: rate limit must be positive, got %v", c.RateLimit)
	}
	if c.MockMode {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("load config: JAMA_URL is required (or set JAMA_MOCK_MODE=true)")
	}
	if !c.HasToken() && !c.HasOAuth() && !c.HasSecretRef() {
		return fmt.Errorf("load config: set JAMA_TOKEN, JAMA_CLIENT_ID/JAMA_CLIENT_SECRET, or JAMA_CREDENTIALS_SECRET")
	}
	return nil
}

// HasToken reports whether a pre-issued bearer token is configured.
func (c Config) HasToken() bool { return c.Token != "" }

// HasOAuth reports whether direct OAuth client credentials are configured.
func (c Config) HasOAuth() bool { return c.ClientID != "" && c.ClientSecret != "" }

// HasSecretRef reports whether credentials live in AWS Secrets Manager.
func (c Config) HasSecretRef() bool { return c.CredentialsSecret != "" }
