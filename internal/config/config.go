package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/pedlens/internal/validation"
)

// Global configuration structure.
type Global struct {
	// Dataset resources: URL (http/https) or local path.
	CSVSource     string `mapstructure:"csv_source" yaml:"csv_source" validate:"required"`
	GeoJSONSource string `mapstructure:"geojson_source" yaml:"geojson_source" validate:"required"`

	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=1"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error off"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`

	TopLimit  int    `mapstructure:"top_limit" yaml:"top_limit" validate:"gte=1"`
	ExportDir string `mapstructure:"export_dir" yaml:"export_dir"`
}

// Keys accepted by `pedlens config set`.
var Keys = []string{
	"csv_source", "geojson_source", "http_timeout_sec",
	"log_level", "log_format", "top_limit", "export_dir",
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".pedlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.pedlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PEDLENS")
	v.AutomaticEnv()

	v.SetDefault("csv_source", "pedestrian_data.csv")
	v.SetDefault("geojson_source", "pedestrian_data.geojson")
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("top_limit", 10)
	v.SetDefault("export_dir", ".")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validation.Struct(c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}
