package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/logging"
	"github.com/openclaw/credman/internal/passcache"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "credman.yaml"

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition
}

// Definition represents the credman.yaml structure
type Definition struct {
	Version    int              `yaml:"version"`
	Store      StoreConfig      `yaml:"store"`
	Scan       ScanConfig       `yaml:"scan"`
	Services   ServicesConfig   `yaml:"services"`
	Passphrase PassphraseConfig `yaml:"passphrase"`
}

// StoreConfig locates the credential store directory
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// ScanConfig controls filesystem discovery
type ScanConfig struct {
	Roots    []string `yaml:"roots"`
	Patterns []string `yaml:"patterns"`
}

// ServicesConfig points at the user's service name table
type ServicesConfig struct {
	File string `yaml:"file"`
}

// PassphraseConfig controls passphrase caching between invocations
type PassphraseConfig struct {
	// Cache is "keyring", "memory", or "none"
	Cache      string `yaml:"cache"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// Load reads and parses the credman.yaml file. A missing file is not
// an error; every setting has a usable default.
func (c *Config) Load() error {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Definition = &Definition{}
			return nil
		}
		return credmanerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return credmanerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 0 {
		return credmanerrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your credman.yaml file",
		}
	}

	c.Definition = &def
	return nil
}

// StoreDir returns the store directory, defaulting to ~/.credman.
func (c *Config) StoreDir() string {
	if c.Definition != nil && c.Definition.Store.Dir != "" {
		return expandHome(c.Definition.Store.Dir)
	}
	return filepath.Join(homeDir(), ".credman")
}

// ScanRoots returns the configured scan roots, defaulting to the home
// directory.
func (c *Config) ScanRoots() []string {
	if c.Definition != nil && len(c.Definition.Scan.Roots) > 0 {
		roots := make([]string, len(c.Definition.Scan.Roots))
		for i, r := range c.Definition.Scan.Roots {
			roots[i] = expandHome(r)
		}
		return roots
	}
	return []string{homeDir()}
}

// ScanPatterns returns the configured file patterns; empty means the
// scanner's defaults apply.
func (c *Config) ScanPatterns() []string {
	if c.Definition == nil {
		return nil
	}
	return c.Definition.Scan.Patterns
}

// ServicesFile returns the user service table path, defaulting to
// services.yaml inside the store directory.
func (c *Config) ServicesFile() string {
	if c.Definition != nil && c.Definition.Services.File != "" {
		return expandHome(c.Definition.Services.File)
	}
	return filepath.Join(c.StoreDir(), "services.yaml")
}

// PassphraseCache names the configured cache backend, defaulting to
// the OS keyring.
func (c *Config) PassphraseCache() string {
	if c.Definition != nil && c.Definition.Passphrase.Cache != "" {
		return c.Definition.Passphrase.Cache
	}
	return "keyring"
}

// CacheTTL returns the passphrase cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	if c.Definition != nil && c.Definition.Passphrase.TTLMinutes > 0 {
		return time.Duration(c.Definition.Passphrase.TTLMinutes) * time.Minute
	}
	return passcache.DefaultTTL
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
