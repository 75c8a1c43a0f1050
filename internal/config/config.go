package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings. An empty Migrations path uses the
// migrations compiled into the binary.
type DatabaseConfig struct {
	Path       string `validate:"required"`
	Migrations string
}

// StorageConfig selects the receipt blob store.
type StorageConfig struct {
	Backend         string `validate:"oneof=fs gcs"`
	Dir             string `validate:"required_if=Backend fs"`
	Bucket          string `validate:"required_if=Backend gcs"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "hangarledger")
}

// Load reads configuration from file and env. Env var overrides use prefix HANGARLEDGER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(dataDir(), "hangarledger.db"))
	v.SetDefault("database.migrations", "")
	v.SetDefault("storage.backend", "fs")
	v.SetDefault("storage.dir", filepath.Join(dataDir(), "blobs"))
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.credentials_file", "")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("HANGARLEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "hangarledger"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("HANGARLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the struct constraints on c.
func Validate(c Config) error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
