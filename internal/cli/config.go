package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config errors.
var (
	errConfigInvalid      = errors.New("invalid config file")
	errConfigFileNotFound = errors.New("config file not found")
	errStoreFileEmpty     = errors.New("store_file must not be empty")
)

// ConfigFileName is the default project config file name.
const ConfigFileName = ".dealpipe.json"

// DefaultStoreFile is the durable file name when no config sets one.
const DefaultStoreFile = "pipeline.json"

// Config holds all configuration options. Config files are JSONC: comments
// and trailing commas are allowed. Zero values fall back to store defaults.
//
//nolint:tagliatelle // snake_case for config file
type Config struct {
	StoreFile     string `json:"store_file"`
	MaxBackups    int    `json:"max_backups,omitempty"`
	LockRetries   int    `json:"lock_retries,omitempty"`
	LockBackoffMS int    `json:"lock_backoff_ms,omitempty"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // path to global config if loaded, empty otherwise
	Project string // path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{StoreFile: DefaultStoreFile}
}

// LoadConfig loads configuration with the following precedence (highest
// wins): defaults, global user config ($XDG_CONFIG_HOME/dealpipe/config.json
// or ~/.config/dealpipe/config.json), project config (.dealpipe.json) or an
// explicit file via configPath, then CLI overrides.
func LoadConfig(workDir, configPath, storeFileOverride string, env map[string]string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	globalCfg, globalPath, globalErr := loadConfigFile(globalConfigPath(env), false)
	if globalErr != nil {
		return Config{}, ConfigSources{}, globalErr
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, projectErr := loadProjectConfig(workDir, configPath)
	if projectErr != nil {
		return Config{}, ConfigSources{}, projectErr
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if storeFileOverride != "" {
		cfg.StoreFile = storeFileOverride
	}

	if cfg.StoreFile == "" {
		return Config{}, ConfigSources{}, errStoreFileEmpty
	}

	return cfg, sources, nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/dealpipe/config.json if set,
// otherwise ~/.config/dealpipe/config.json. Empty when no home directory
// can be determined.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "dealpipe", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "dealpipe", "config.json")
}

// loadProjectConfig loads .dealpipe.json from the work directory, or an
// explicit config file which must exist.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	if configPath != "" {
		cfgFile := configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}

		return loadConfigFile(cfgFile, true)
	}

	return loadConfigFile(filepath.Join(workDir, ConfigFileName), false)
}

// loadConfigFile loads one config file. A missing optional file returns a
// zero config and empty path.
func loadConfigFile(path string, mustExist bool) (Config, string, error) {
	if path == "" {
		return Config{}, "", nil
	}

	data, readErr := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if readErr != nil {
		if os.IsNotExist(readErr) && !mustExist {
			return Config{}, "", nil
		}

		return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, path)
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, path, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.StoreFile != "" {
		base.StoreFile = overlay.StoreFile
	}

	if overlay.MaxBackups != 0 {
		base.MaxBackups = overlay.MaxBackups
	}

	if overlay.LockRetries != 0 {
		base.LockRetries = overlay.LockRetries
	}

	if overlay.LockBackoffMS != 0 {
		base.LockBackoffMS = overlay.LockBackoffMS
	}

	return base
}

// FormatConfig returns the config as formatted JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
