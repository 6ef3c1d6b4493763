// Package config loads service settings from defaults, an optional config file, an optional
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/prism-news/internal/api"
	"github.com/Adda-Baaj/prism-news/internal/logger"
	"github.com/Adda-Baaj/prism-news/internal/store"
	"github.com/Adda-Baaj/prism-news/pkg/providers"
)

// APIKeyEnv names the environment variable holding the feed credential.
const APIKeyEnv = "NEWS_API_KEY"

// Config validation errors.
var (
	ErrInvalidKeyMode   = errors.New("feed.key_mode must be one of: query, header")
	ErrInvalidTimeout   = errors.New("feed.timeout_ms must be positive")
	ErrInvalidBackend   = errors.New("store.backend must be one of: dynamodb, bolt, memory")
	ErrMissingBoltPath  = errors.New("store.bolt.path is required for the bolt backend")
	ErrInvalidPort      = errors.New("api.port must be a number between 1 and 65535")
	ErrInvalidLogFormat = errors.New("log.format must be one of: json, console")
)

// Config is the full service configuration. The API key is deliberately absent: it is read
// from the environment on every run.
type Config struct {
	Feed           providers.Provider `mapstructure:"feed"`
	Store          store.Config       `mapstructure:"store"`
	API            api.Config         `mapstructure:"api"`
	Log            logger.Options     `mapstructure:"log"`
	PublishersFile string             `mapstructure:"publishers_file"`
	AWSRegion      string             `mapstructure:"aws_region"`
}

// Options control where Load looks.
type Options struct {
	ConfigFile string
	EnvFile    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.id", providers.ProviderTypeNewsAPI)
	v.SetDefault("feed.type", providers.ProviderTypeNewsAPI)
	v.SetDefault("feed.source_url", providers.DefaultSourceURL)
	v.SetDefault("feed.key_mode", string(providers.KeyModeQuery))
	v.SetDefault("feed.user_agent", "")
	v.SetDefault("feed.timeout_ms", int(providers.DefaultTimeout/time.Millisecond))

	v.SetDefault("store.backend", store.BackendDynamoDB)
	v.SetDefault("store.dynamodb.table", store.DefaultTableName)
	v.SetDefault("store.dynamodb.region", "")
	v.SetDefault("store.dynamodb.endpoint", "")
	v.SetDefault("store.dynamodb.access_key_id", "")
	v.SetDefault("store.dynamodb.secret_access_key", "")
	v.SetDefault("store.bolt.path", "data/prism-news.db")

	v.SetDefault("api.port", "8080")
	v.SetDefault("api.purge_interval", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("publishers_file", "")
	v.SetDefault("aws_region", "")
}

// Load resolves the configuration. Nested keys map to environment variables by replacing
// dots with underscores, e.g. feed.key_mode -> FEED_KEY_MODE.
func Load(opts Options) (*Config, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(opts.ConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Store.DynamoDB.Region == "" {
		cfg.Store.DynamoDB.Region = cfg.AWSRegion
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads path when given. A missing default .env is fine; a missing explicit one
// is not.
func loadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	switch providers.KeyMode(strings.ToLower(strings.TrimSpace(string(c.Feed.KeyMode)))) {
	case providers.KeyModeQuery, providers.KeyModeHeader:
	default:
		errs = append(errs, ErrInvalidKeyMode)
	}
	if c.Feed.TimeoutMS <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Backend)) {
	case store.BackendDynamoDB, store.BackendMemory:
	case store.BackendBolt:
		if strings.TrimSpace(c.Store.Bolt.Path) == "" {
			errs = append(errs, ErrMissingBoltPath)
		}
	default:
		errs = append(errs, ErrInvalidBackend)
	}

	if !validPort(c.API.Port) {
		errs = append(errs, ErrInvalidPort)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "json", "console":
	default:
		errs = append(errs, ErrInvalidLogFormat)
	}

	return errors.Join(errs...)
}

func validPort(port string) bool {
	var n int
	if _, err := fmt.Sscanf(port, "%d", &n); err != nil || fmt.Sprint(n) != port {
		return false
	}
	return n >= 1 && n <= 65535
}

// Credential returns the feed API key as currently set in the environment.
func Credential() string {
	return strings.TrimSpace(os.Getenv(APIKeyEnv))
}
