// Package config loads and saves the hrdesk settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/brainhr/hrdesk/pkg/domain"
)

// EnvPrefix prefixes environment overrides, e.g. HRDESK_API_URL.
const EnvPrefix = "HRDESK"

// Defaults used when neither the file nor the environment sets a value.
const (
	DefaultAPIURL    = "http://localhost:5000"
	DefaultPortalURL = "http://localhost:3000"
	DefaultLogLevel  = "info"
)

// Config is the on-disk configuration.
type Config struct {
	// APIURL is the root of the back-office REST API.
	APIURL string `mapstructure:"api_url" yaml:"api_url"`

	// PortalURL is the web portal opened by `hrdesk open`.
	PortalURL string `mapstructure:"portal_url" yaml:"portal_url"`

	// Role and Username identify the last signed-in account. The session
	// itself lives in the keyring.
	Role     string `mapstructure:"role" yaml:"role"`
	Username string `mapstructure:"username" yaml:"username"`

	// LogFile receives structured logs. Empty disables logging.
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultPath returns ~/.config/hrdesk/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "hrdesk", "config.yaml")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("portal_url", DefaultPortalURL)
	v.SetDefault("role", string(domain.RoleEmployee))
	v.SetDefault("username", "")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config at path. A missing file yields the defaults; a file
// that exists but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, nil
}

// SessionRole validates the configured role.
func (c *Config) SessionRole() (domain.Role, error) {
	return domain.ParseRole(c.Role)
}

// values maps each config key to cfg's value for it.
func (c *Config) values() map[string]string {
	return map[string]string{
		"api_url":    c.APIURL,
		"portal_url": c.PortalURL,
		"role":       c.Role,
		"username":   c.Username,
		"log_file":   c.LogFile,
		"log_level":  c.LogLevel,
	}
}

// fromEnv reports whether value for key is exactly what the environment
// override supplied.
func fromEnv(key, value string) bool {
	env, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(key))
	if !ok {
		return false
	}
	if key == "api_url" {
		env = strings.TrimRight(env, "/")
	}
	return env == value
}

// Save writes cfg to path as YAML, creating parent directories if needed.
// The existing file is the base. Values that came from HRDESK_* overrides
// are left as the file has them.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	for key, value := range cfg.values() {
		if fromEnv(key, value) {
			continue
		}
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
