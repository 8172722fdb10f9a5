package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/reel/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "reel", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.DefaultConfig != "" || cfg.CatalogPath != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configDir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, GlobalConfigFile), []byte(":\n\t- not yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() should fail on invalid YAML")
	}
}

func TestGlobalConfig_SaveGetSet(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := &GlobalConfig{}
	if err := cfg.Set("catalog_path", "/data/reel"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cfg.Set("nexus_path", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(unknown) = %v, want ErrUnknownKey", err)
	}
	if err := SaveGlobalConfig(cfg); err != nil {
		t.Fatalf("SaveGlobalConfig() error = %v", err)
	}

	ResetGlobalConfigCache()
	loaded, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	got, err := loaded.Get("catalog_path")
	if err != nil || got != "/data/reel" {
		t.Errorf("Get(catalog_path) = %q, %v", got, err)
	}
	if CatalogDir() != "/data/reel" {
		t.Errorf("CatalogDir() = %q", CatalogDir())
	}
}

func TestGlobalConfigCache(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configDir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	configFile := filepath.Join(configDir, GlobalConfigFile)
	if err := os.WriteFile(configFile, []byte("catalog_path: /first\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg1, _ := LoadGlobalConfig()
	if cfg1.CatalogPath != "/first" {
		t.Errorf("first load: CatalogPath = %q", cfg1.CatalogPath)
	}

	if err := os.WriteFile(configFile, []byte("catalog_path: /second\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg2, _ := LoadGlobalConfig()
	if cfg2.CatalogPath != "/first" {
		t.Errorf("second load should be cached, got %q", cfg2.CatalogPath)
	}

	ResetGlobalConfigCache()
	cfg3, _ := LoadGlobalConfig()
	if cfg3.CatalogPath != "/second" {
		t.Errorf("after reset: CatalogPath = %q", cfg3.CatalogPath)
	}
}

func TestResolve(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\") error = %v", err)
	}
	if cfg.Forces != Default().Forces {
		t.Errorf("expected defaults, got %+v", cfg.Forces)
	}

	layout := filepath.Join(tmpDir, "layout.yml")
	if err := os.WriteFile(layout, []byte("forces:\n  collision_radius: 40\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := SaveGlobalConfig(&GlobalConfig{DefaultConfig: layout}); err != nil {
		t.Fatal(err)
	}
	cfg, err = Resolve("")
	if err != nil {
		t.Fatalf("Resolve via default_config error = %v", err)
	}
	if cfg.Forces.CollisionRadius != 40 {
		t.Errorf("CollisionRadius = %v, want 40", cfg.Forces.CollisionRadius)
	}
}

func TestGlobalKeys(t *testing.T) {
	keys := GlobalKeys()
	if len(keys) != 2 || keys[0] != "catalog_path" || keys[1] != "default_config" {
		t.Errorf("GlobalKeys() = %v", keys)
	}
}
