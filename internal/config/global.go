package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/reel/config.yml.
type GlobalConfig struct {
	DefaultConfig string `yaml:"default_config,omitempty"` // layout config used when --config is absent
	CatalogPath   string `yaml:"catalog_path,omitempty"`   // directory holding the dataset catalog
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "reel"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// ErrUnknownKey is returned for a global config key that does not exist.
var ErrUnknownKey = errors.New("unknown config key")

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/reel/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	cfg.DefaultConfig = ExpandPath(cfg.DefaultConfig)
	cfg.CatalogPath = ExpandPath(cfg.CatalogPath)

	globalConfigCache = &cfg
	return &cfg, nil
}

// SaveGlobalConfig writes cfg to the global config path and refreshes the cache.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	path := GlobalConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine global config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}
	globalConfigCache = cfg
	return nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GlobalKeys returns the settable global keys in sorted order.
func GlobalKeys() []string {
	keys := make([]string, 0, len(globalFields))
	for k := range globalFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var globalFields = map[string]func(*GlobalConfig) *string{
	"default_config": func(c *GlobalConfig) *string { return &c.DefaultConfig },
	"catalog_path":   func(c *GlobalConfig) *string { return &c.CatalogPath },
}

// Get returns the value of a global key.
func (c *GlobalConfig) Get(key string) (string, error) {
	f, ok := globalFields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return *f(c), nil
}

// Set assigns a global key.
func (c *GlobalConfig) Set(key, value string) error {
	f, ok := globalFields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	*f(c) = ExpandPath(value)
	return nil
}

// CatalogDir returns the configured catalog directory, defaulting to
// $XDG_DATA_HOME/reel (or ~/.local/share/reel).
func CatalogDir() string {
	cfg, err := LoadGlobalConfig()
	if err == nil && cfg.CatalogPath != "" {
		return cfg.CatalogPath
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return GlobalConfigDir
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, GlobalConfigDir)
}

// Resolve loads the layout config from path, falling back to the global
// default_config and then to Default.
func Resolve(path string) (*Config, error) {
	if path == "" {
		if g, err := LoadGlobalConfig(); err == nil {
			path = g.DefaultConfig
		}
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
