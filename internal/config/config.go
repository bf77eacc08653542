package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`

	MediaPath       string `mapstructure:"media_path"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
	ProvidersFile   string `mapstructure:"providers_file"`
	PublishersFile  string `mapstructure:"publishers_file"`
	CountryBloc     string `mapstructure:"country_bloc"`
	CurrencyBase    string `mapstructure:"currency_base"`

	APIKeyAPILayer    string `mapstructure:"api_key_apilayer"`
	APIKeyOpenWeather string `mapstructure:"api_key_openweather"`
	APIKeyNews        string `mapstructure:"api_key_news"`

	CacheTTLCountrySeconds       int64         `mapstructure:"cache_ttl_country"`
	CacheTTLCurrencyRatesSeconds int64         `mapstructure:"cache_ttl_currency_rates"`
	CacheTTLWeatherSeconds       int64         `mapstructure:"cache_ttl_weather"`
	CacheTTLNewsSeconds          int64         `mapstructure:"cache_ttl_news"`
	CacheTTLCountry              time.Duration `mapstructure:"-"`
	CacheTTLCurrencyRates        time.Duration `mapstructure:"-"`
	CacheTTLWeather              time.Duration `mapstructure:"-"`
	CacheTTLNews                 time.Duration `mapstructure:"-"`

	CollectConcurrency     int           `mapstructure:"collect_concurrency"`
	CollectIntervalSeconds int64         `mapstructure:"collect_interval"`
	CollectInterval        time.Duration `mapstructure:"-"`
	HTTPTimeoutSeconds     int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout            time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "locinfo")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)
	v.SetDefault("media_path", "./media")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("providers_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("country_bloc", "eu")
	v.SetDefault("currency_base", "rub")
	v.SetDefault("api_key_apilayer", "")
	v.SetDefault("api_key_openweather", "")
	v.SetDefault("api_key_news", "")
	v.SetDefault("cache_ttl_country", int64((365*24*time.Hour)/time.Second))
	v.SetDefault("cache_ttl_currency_rates", int64((24*time.Hour)/time.Second))
	v.SetDefault("cache_ttl_weather", 10700) // a little under three hours
	v.SetDefault("cache_ttl_news", int64(time.Hour/time.Second))
	v.SetDefault("collect_concurrency", 8)
	v.SetDefault("collect_interval", 0) // seconds, 0 runs once
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/headlines.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
}

func (cfg *Config) normalize() error {
	cfg.MediaPath = strings.TrimSpace(cfg.MediaPath)
	if cfg.MediaPath == "" {
		return fmt.Errorf("invalid media_path (must not be empty)")
	}
	cfg.CountryBloc = strings.ToLower(strings.TrimSpace(cfg.CountryBloc))
	cfg.CurrencyBase = strings.ToLower(strings.TrimSpace(cfg.CurrencyBase))

	ttls := []struct {
		key     string
		seconds int64
		out     *time.Duration
	}{
		{"cache_ttl_country", cfg.CacheTTLCountrySeconds, &cfg.CacheTTLCountry},
		{"cache_ttl_currency_rates", cfg.CacheTTLCurrencyRatesSeconds, &cfg.CacheTTLCurrencyRates},
		{"cache_ttl_weather", cfg.CacheTTLWeatherSeconds, &cfg.CacheTTLWeather},
		{"cache_ttl_news", cfg.CacheTTLNewsSeconds, &cfg.CacheTTLNews},
		{"http_timeout_seconds", cfg.HTTPTimeoutSeconds, &cfg.HTTPTimeout},
		{"storage_ttl_seconds", cfg.StorageTTLSeconds, &cfg.StorageTTL},
		{"storage_cleanup_interval_seconds", cfg.StorageCleanupSeconds, &cfg.StorageCleanupInterval},
	}
	for _, ttl := range ttls {
		if ttl.seconds <= 0 {
			return fmt.Errorf("invalid %s (must be positive seconds)", ttl.key)
		}
		*ttl.out = time.Duration(ttl.seconds) * time.Second
	}

	if cfg.CollectConcurrency <= 0 {
		return fmt.Errorf("invalid collect_concurrency (must be positive)")
	}
	if cfg.CollectIntervalSeconds < 0 {
		return fmt.Errorf("invalid collect_interval (must not be negative)")
	}
	cfg.CollectInterval = time.Duration(cfg.CollectIntervalSeconds) * time.Second
	return nil
}

// RequireCollectionKeys reports the first provider API key missing for a collection run.
func (cfg *Config) RequireCollectionKeys() error {
	keys := []struct{ name, value string }{
		{"api_key_apilayer", cfg.APIKeyAPILayer},
		{"api_key_openweather", cfg.APIKeyOpenWeather},
		{"api_key_news", cfg.APIKeyNews},
	}
	for _, k := range keys {
		if strings.TrimSpace(k.value) == "" {
			return fmt.Errorf("%s is required for collection", k.name)
		}
	}
	return nil
}

// Redacted returns a copy safe for logging: API keys are masked.
func (cfg Config) Redacted() Config {
	cfg.APIKeyAPILayer = mask(cfg.APIKeyAPILayer)
	cfg.APIKeyOpenWeather = mask(cfg.APIKeyOpenWeather)
	cfg.APIKeyNews = mask(cfg.APIKeyNews)
	return cfg
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
