package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the migrator
type Config struct {
	PrestaShop PrestaShopConfig `mapstructure:"prestashop"`
	Export     ExportConfig     `mapstructure:"export"`
	Migration  MigrationConfig  `mapstructure:"migration"`
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
}

// PrestaShopConfig holds the target webservice configuration
type PrestaShopConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	LangID            int           `mapstructure:"lang_id"`
	ShopID            int           `mapstructure:"shop_id"`
	HomeCategoryID    int           `mapstructure:"home_category_id"`
	TaxRulesGroupID   int           `mapstructure:"tax_rules_group_id"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 means unlimited
	Timeout           time.Duration `mapstructure:"timeout"`
}

// ExportConfig locates the WXR export file
type ExportConfig struct {
	Path string `mapstructure:"path"`
}

// MigrationConfig holds the orchestration and extraction settings
type MigrationConfig struct {
	Concurrency      int    `mapstructure:"concurrency"`
	SKUPrefix        string `mapstructure:"sku_prefix"`
	VariantDomain    string `mapstructure:"variant_domain"`
	VariantGroupName string `mapstructure:"variant_group_name"`
	DryRun           bool   `mapstructure:"dry_run"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
	Output string `mapstructure:"output"`
}

// ServerConfig holds the optional status server settings
type ServerConfig struct {
	Port           string   `mapstructure:"port"` // empty disables the server
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// envAliases maps config keys to the environment variables accepted for them,
// including the names used by the legacy migration script.
var envAliases = map[string][]string{
	"prestashop.base_url":           {"MIGRATOR_PRESTASHOP_BASE_URL", "PS_BASE_URL"},
	"prestashop.api_key":            {"MIGRATOR_PRESTASHOP_API_KEY", "PS_API_KEY"},
	"prestashop.lang_id":            {"MIGRATOR_PRESTASHOP_LANG_ID", "PS_LANG_ID"},
	"prestashop.shop_id":            {"MIGRATOR_PRESTASHOP_SHOP_ID", "PS_SHOP_ID"},
	"prestashop.home_category_id":   {"MIGRATOR_PRESTASHOP_HOME_CATEGORY_ID", "PS_HOME_CATEGORY_ID"},
	"prestashop.tax_rules_group_id": {"MIGRATOR_PRESTASHOP_TAX_RULES_GROUP_ID", "PS_TAX_RULE_GROUP_ID"},
	"export.path":                   {"MIGRATOR_EXPORT_PATH", "xml_PATH"},
	"migration.concurrency":         {"MIGRATOR_MIGRATION_CONCURRENCY", "CONCURRENCY"},
}

// Load loads configuration from the .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("MIGRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.PrestaShop.BaseURL = strings.TrimRight(strings.TrimSpace(config.PrestaShop.BaseURL), "/")

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment. A missing file is not
// an error and existing variables are never overridden.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("prestashop.base_url", "")
	v.SetDefault("prestashop.api_key", "")
	v.SetDefault("prestashop.lang_id", 1)
	v.SetDefault("prestashop.shop_id", 1)
	v.SetDefault("prestashop.home_category_id", 2)
	v.SetDefault("prestashop.tax_rules_group_id", 1)
	v.SetDefault("prestashop.requests_per_second", 0)
	v.SetDefault("prestashop.timeout", "60s")

	v.SetDefault("export.path", "./export.xml")

	v.SetDefault("migration.concurrency", 3)
	v.SetDefault("migration.sku_prefix", "WP")
	v.SetDefault("migration.variant_domain", "pa_taille")
	v.SetDefault("migration.variant_group_name", "Taille")
	v.SetDefault("migration.dry_run", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("server.port", "")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})
}

func validate(config *Config) error {
	if config.PrestaShop.BaseURL == "" {
		return fmt.Errorf("PrestaShop base URL is required (set PS_BASE_URL)")
	}
	if config.PrestaShop.APIKey == "" {
		return fmt.Errorf("PrestaShop API key is required (set PS_API_KEY)")
	}
	if config.Migration.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got: %d", config.Migration.Concurrency)
	}
	if config.PrestaShop.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got: %g", config.PrestaShop.RequestsPerSecond)
	}
	if config.Export.Path == "" {
		return fmt.Errorf("export path is required (set xml_PATH)")
	}
	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}
	return nil
}
