// Package config handles loading, merging, and validation of cmdsift
// settings.
//
// Settings come from three layers, lowest priority first:
//
//   - built-in defaults
//   - a user config file in the XDG config directory
//   - CMDSIFT_* environment variables
//
// The command line sits above all three; flag binding happens in the
// cmd package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full cmdsift configuration tree. Sections are
// pointers so a partial user file overlays cleanly onto defaults.
type Config struct {
	Probe    *ProbeConfig    `yaml:"probe,omitempty"`
	Policy   *PolicyConfig   `yaml:"policy,omitempty"`
	Cache    *CacheConfig    `yaml:"cache,omitempty"`
	Discover *DiscoverConfig `yaml:"discover,omitempty"`
	Output   *OutputConfig   `yaml:"output,omitempty"`
}

// ProbeConfig controls how commands are interrogated.
type ProbeConfig struct {
	// Timeout bounds each probe process, e.g. "5s"
	Timeout string `yaml:"timeout,omitempty"`
	// Man enables falling back to rendered man pages
	Man *bool `yaml:"man,omitempty"`
	// ShellFallback enables the login-shell probe of last resort
	ShellFallback *bool `yaml:"shell_fallback,omitempty"`
	// Recurse enables probing discovered subcommands
	Recurse *bool `yaml:"recurse,omitempty"`
}

// PolicyConfig holds the schema acceptance thresholds.
type PolicyConfig struct {
	MinConfidence   *float64 `yaml:"min_confidence,omitempty"`
	MinCoverage     *float64 `yaml:"min_coverage,omitempty"`
	AllowLowQuality *bool    `yaml:"allow_low_quality,omitempty"`
	// AcceptExpr optionally filters batch results, e.g.
	// `confidence >= 0.8 && quality_tier != "low"`
	AcceptExpr string `yaml:"accept_expr,omitempty"`
}

// CacheConfig controls the on-disk schema cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	TTL     string `yaml:"ttl,omitempty"`
}

// DiscoverConfig controls batch discovery.
type DiscoverConfig struct {
	Paths         []string `yaml:"paths,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty"`
	Jobs          int      `yaml:"jobs,omitempty"`
	InstalledOnly *bool    `yaml:"installed_only,omitempty"`
	Limit         int      `yaml:"limit,omitempty"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	// Format is one of json, yaml, markdown, table
	Format string `yaml:"format,omitempty"`
	// Color is one of auto, always, never
	Color string `yaml:"color,omitempty"`
}

// Loader handles loading configuration from user files and the
// environment.
type Loader struct {
	appName   string
	envPrefix string
}

// NewLoader creates a configuration loader for the named app.
func NewLoader(appName string) *Loader {
	return &Loader{
		appName:   appName,
		envPrefix: strings.ToUpper(strings.ReplaceAll(appName, "-", "_")),
	}
}

// Load loads and merges configuration from all sources.
// Priority: ENV > User Config > Default
func (l *Loader) Load() (*Config, error) {
	userConfig, err := l.loadUserConfig()
	if err != nil {
		// User config is optional, log warning but continue
		fmt.Fprintf(os.Stderr, "Warning: failed to load user config: %v\n", err)
		userConfig = &Config{}
	}

	merged := mergeConfigs(&Config{}, userConfig)
	MergeDefaults(merged)

	if err := l.applyEnvironmentOverrides(merged); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return merged, nil
}

// loadUserConfig loads user configuration from XDG-compliant paths.
func (l *Loader) loadUserConfig() (*Config, error) {
	configPath := l.UserConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// User config is optional
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}

	return &config, nil
}

// UserConfigPath returns the user config file path. A CMDSIFT_CONFIG
// environment variable overrides the XDG default.
func (l *Loader) UserConfigPath() string {
	if customPath := os.Getenv(l.envPrefix + "_CONFIG"); customPath != "" {
		return customPath
	}
	return filepath.Join(xdg.ConfigHome, l.appName, "config.yaml")
}

// GetCacheDir returns the XDG-compliant cache directory.
func (l *Loader) GetCacheDir() string {
	return filepath.Join(xdg.CacheHome, l.appName)
}

// GetDataDir returns the XDG-compliant data directory.
func (l *Loader) GetDataDir() string {
	return filepath.Join(xdg.DataHome, l.appName)
}

// GetStateDir returns the XDG-compliant state directory.
func (l *Loader) GetStateDir() string {
	return filepath.Join(xdg.StateHome, l.appName)
}

// EnsureConfigDirs creates all necessary XDG directories.
func (l *Loader) EnsureConfigDirs() error {
	dirs := []string{
		filepath.Join(xdg.ConfigHome, l.appName),
		filepath.Join(xdg.CacheHome, l.appName),
		filepath.Join(xdg.DataHome, l.appName),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// SaveUserConfig saves user configuration to the XDG config directory.
func (l *Loader) SaveUserConfig(config *Config) error {
	configPath := l.UserConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides applies CMDSIFT_* environment variables.
func (l *Loader) applyEnvironmentOverrides(config *Config) error {
	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	envMappings := map[string]string{
		"PROBE_TIMEOUT":     "probe.timeout",
		"NO_MAN":            "probe.man",
		"NO_RECURSE":        "probe.recurse",
		"MIN_CONFIDENCE":    "policy.min_confidence",
		"MIN_COVERAGE":      "policy.min_coverage",
		"ALLOW_LOW_QUALITY": "policy.allow_low_quality",
		"ACCEPT_EXPR":       "policy.accept_expr",
		"NO_CACHE":          "cache.enabled",
		"CACHE_DIR":         "cache.dir",
		"CACHE_TTL":         "cache.ttl",
		"JOBS":              "discover.jobs",
		"OUTPUT_FORMAT":     "output.format",
		"NO_COLOR":          "output.color",
	}

	for envKey, configPath := range envMappings {
		fullEnvKey := l.envPrefix + "_" + envKey
		val := os.Getenv(fullEnvKey)
		if envKey == "NO_COLOR" && val == "" {
			// the conventional un-prefixed form also counts
			val = os.Getenv("NO_COLOR")
		}
		if val == "" {
			continue
		}
		if err := setConfigValue(config, configPath, val); err != nil {
			return fmt.Errorf("failed to apply env var %s: %w", fullEnvKey, err)
		}
	}

	return nil
}

// setConfigValue sets a value in the config using a dot-notation path.
func setConfigValue(config *Config, path, value string) error {
	switch path {
	case "probe.timeout":
		ensureProbe(config).Timeout = value

	case "probe.man":
		ensureProbe(config).Man = boolPtr(!isTruthy(value))

	case "probe.recurse":
		ensureProbe(config).Recurse = boolPtr(!isTruthy(value))

	case "policy.min_confidence":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %q as a number: %w", value, err)
		}
		ensurePolicy(config).MinConfidence = &f

	case "policy.min_coverage":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %q as a number: %w", value, err)
		}
		ensurePolicy(config).MinCoverage = &f

	case "policy.allow_low_quality":
		ensurePolicy(config).AllowLowQuality = boolPtr(isTruthy(value))

	case "policy.accept_expr":
		ensurePolicy(config).AcceptExpr = value

	case "cache.enabled":
		// NO_CACHE set means caching off
		ensureCache(config).Enabled = boolPtr(!isTruthy(value))

	case "cache.dir":
		ensureCache(config).Dir = value

	case "cache.ttl":
		ensureCache(config).TTL = value

	case "discover.jobs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("failed to parse %q as an integer: %w", value, err)
		}
		ensureDiscover(config).Jobs = n

	case "output.format":
		ensureOutput(config).Format = value

	case "output.color":
		if isTruthy(value) {
			ensureOutput(config).Color = "never"
		}

	default:
		return fmt.Errorf("unknown config path: %s", path)
	}

	return nil
}

func ensureProbe(c *Config) *ProbeConfig {
	if c.Probe == nil {
		c.Probe = &ProbeConfig{}
	}
	return c.Probe
}

func ensurePolicy(c *Config) *PolicyConfig {
	if c.Policy == nil {
		c.Policy = &PolicyConfig{}
	}
	return c.Policy
}

func ensureCache(c *Config) *CacheConfig {
	if c.Cache == nil {
		c.Cache = &CacheConfig{}
	}
	return c.Cache
}

func ensureDiscover(c *Config) *DiscoverConfig {
	if c.Discover == nil {
		c.Discover = &DiscoverConfig{}
	}
	return c.Discover
}

func ensureOutput(c *Config) *OutputConfig {
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	return c.Output
}

func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }
