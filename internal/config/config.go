package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Registry RegistryConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// RegistryConfig holds vocabulary cache settings.
type RegistryConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Timezone       string
}

// Load reads configuration from file and env. Env var overrides use prefix ARIAQUERY_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "ariaquery", "ariaquery.db"))
	v.SetDefault("registry.cache_ttl", "5m")
	v.SetDefault("ui.currency_symbol", "₹")
	v.SetDefault("ui.timezone", "Asia/Kolkata")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ARIAQUERY_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ariaquery"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ARIAQUERY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Registry.CacheTTL <= 0 {
		c.Registry.CacheTTL = 5 * time.Minute
	}
	return c, nil
}
