package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds process-wide defaults that aren't part of a single
// verb invocation's flags: which scope to operate in and, for testing
// against a captured image root, a default root_dir. Resolved env var ->
// YAML file -> built-in default, mirroring the teacher's RuntimeConfig.
type RuntimeConfig struct {
	Scope   string `yaml:"scope"`
	RootDir string `yaml:"root_dir,omitempty"`
}

// RuntimeConfigPath stays a package-level var, not a constant, so tests can
// stub it without touching the real filesystem.
var RuntimeConfigPath = defaultRuntimeConfigPath

func defaultRuntimeConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "unitctl", "config.yaml"), nil
}

// LoadRuntimeConfig reads the YAML config file, returning built-in defaults
// if it doesn't exist.
func LoadRuntimeConfig() (*RuntimeConfig, error) {
	path, err := RuntimeConfigPath()
	if err != nil {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, newErr(ErrIO, path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, newErr(ErrParse, path, err)
	}
	return cfg, nil
}

// SaveRuntimeConfig writes cfg to the resolved config path, creating parent
// directories as needed.
func SaveRuntimeConfig(cfg *RuntimeConfig) error {
	path, err := RuntimeConfigPath()
	if err != nil {
		return newErr(ErrIO, "", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newErr(ErrIO, path, err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return newErr(ErrParse, path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() *RuntimeConfig {
	return &RuntimeConfig{Scope: "system"}
}

// ResolveRuntime resolves scope and root_dir via env var -> config file ->
// default, exactly like the teacher's ResolveRuntime chain.
func ResolveRuntime(scopeFlag, rootFlag string) (Scope, string, error) {
	scopeName := scopeFlag
	rootDir := rootFlag

	if scopeName == "" {
		scopeName = os.Getenv("UNITCTL_SCOPE")
	}
	if rootDir == "" {
		rootDir = os.Getenv("UNITCTL_ROOT_DIR")
	}

	if scopeName == "" || rootDir == "" {
		cfg, err := LoadRuntimeConfig()
		if err != nil {
			return ScopeSystem, "", err
		}
		if scopeName == "" {
			scopeName = cfg.Scope
		}
		if rootDir == "" {
			rootDir = cfg.RootDir
		}
	}

	switch scopeName {
	case "", "system":
		return ScopeSystem, rootDir, nil
	case "user":
		return ScopeUser, rootDir, nil
	case "global":
		return ScopeGlobal, rootDir, nil
	default:
		return ScopeSystem, "", newErr(ErrInvalidName, scopeName, nil)
	}
}

// GetConfigValue reads a single named field from the resolved config.
func GetConfigValue(key string) (string, error) {
	cfg, err := LoadRuntimeConfig()
	if err != nil {
		return "", err
	}
	switch key {
	case "scope":
		return cfg.Scope, nil
	case "root_dir":
		return cfg.RootDir, nil
	default:
		return "", newErr(ErrInvalidName, key, nil)
	}
}

// SetConfigValue writes a single named field and persists the config.
func SetConfigValue(key, value string) error {
	cfg, err := LoadRuntimeConfig()
	if err != nil {
		return err
	}
	switch key {
	case "scope":
		cfg.Scope = value
	case "root_dir":
		cfg.RootDir = value
	default:
		return newErr(ErrInvalidName, key, nil)
	}
	return SaveRuntimeConfig(cfg)
}

// ResetConfigValue clears a single named field back to its built-in default.
func ResetConfigValue(key string) error {
	def := defaultConfig()
	switch key {
	case "scope":
		return SetConfigValue("scope", def.Scope)
	case "root_dir":
		return SetConfigValue("root_dir", "")
	default:
		return newErr(ErrInvalidName, key, nil)
	}
}

// ListConfigValues returns every resolved config field as a map, for a
// `config list` style CLI command.
func ListConfigValues() (map[string]string, error) {
	cfg, err := LoadRuntimeConfig()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"scope":    cfg.Scope,
		"root_dir": cfg.RootDir,
	}, nil
}
