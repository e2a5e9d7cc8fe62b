package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the workspace settings read from weft.yml.
type Config struct {
	ProjectName string       `mapstructure:"project_name"`
	Metamodel   string       `mapstructure:"metamodel"`
	Output      OutputConfig `mapstructure:"output"`
}

// OutputConfig controls where serialized models are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads weft.yml (or weft.yaml) from the current directory. Defaults
// apply when no file is present, and WEFT_* environment variables override
// file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("metamodel", "model.weft.json")
	v.SetDefault("output.dir", "out")

	v.SetConfigName("weft")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WEFT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// a missing file just means defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// InWorkspace reports whether the current directory carries a workspace file.
func InWorkspace() bool {
	if _, err := os.Stat("weft.yml"); err == nil {
		return true
	}
	if _, err := os.Stat("weft.yaml"); err == nil {
		return true
	}
	return false
}

// GetWorkspaceRoot walks up from the working directory until it finds a
// weft.yml and returns that directory.
func GetWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "weft.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "weft.yaml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Weft workspace (no weft.yml found)")
		}
		dir = parent
	}
}

// validateConfig rejects settings the tool cannot act on.
func validateConfig(cfg *Config) error {
	if cfg.Metamodel != "" && !strings.HasSuffix(cfg.Metamodel, ".json") {
		return fmt.Errorf("metamodel must be a .json file, got: %s", cfg.Metamodel)
	}
	return nil
}
