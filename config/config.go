// Package config provides YAML configuration parsing for the neurox CLI.
//
// The config file seeds the persistent settings store and tunes the watch
// loop. Credentials support environment variable substitution so tokens can
// stay out of the file:
//
//	url: https://platform.example.com/api/v1
//	username: rebryk
//	token: ${NEUROX_TOKEN}
//	rsa_path: ~/.ssh/id_rsa
//	update_interval: 1s
//	max_update_cycle: 30
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultUpdateInterval = time.Second
	defaultMaxUpdateCycle = 30

	// minUpdateInterval prevents accidental hot-loop polling of the
	// platform API.
	minUpdateInterval = 100 * time.Millisecond
)

// Config is the root configuration structure for the neurox CLI.
//
// It maps directly to the YAML configuration file. Use [Load] or [Parse] to
// create a Config from YAML.
type Config struct {
	// URL is the platform API root.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Username is the platform account name.
	Username string `yaml:"username"`

	// Token is the platform access token.
	// Values support environment variable substitution.
	Token string `yaml:"token"`

	// RSAPath is the private key used for SSH access to jobs.
	// A leading "~/" expands to the home directory.
	RSAPath string `yaml:"rsa_path"`

	// SettingsPath overrides the location of the mutable settings file.
	SettingsPath string `yaml:"settings_path"`

	// UpdateInterval is the tick period of the watch loop.
	// Accepts duration strings like "1s", "500ms". Defaults to 1s.
	UpdateInterval Duration `yaml:"update_interval"`

	// MaxUpdateCycle caps the poll backoff in ticks. Defaults to 30.
	MaxUpdateCycle int `yaml:"max_update_cycle"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL and Token values, defaults are
// applied, and the result is validated.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.UpdateInterval == 0 {
		cfg.UpdateInterval = Duration(defaultUpdateInterval)
	}
	if cfg.MaxUpdateCycle == 0 {
		cfg.MaxUpdateCycle = defaultMaxUpdateCycle
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	expanded, err := expandEnvVars(c.URL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	c.URL = expanded

	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if c.Username == "" {
		return fmt.Errorf("username is required")
	}

	if c.Token != "" {
		expanded, err := expandEnvVars(c.Token)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		c.Token = expanded
	}

	if c.RSAPath != "" {
		c.RSAPath = expandHome(c.RSAPath)
	}

	if c.UpdateInterval.Duration() < minUpdateInterval {
		return fmt.Errorf("update_interval must be at least %s, got %s",
			minUpdateInterval, c.UpdateInterval.Duration())
	}
	if c.MaxUpdateCycle < 1 {
		return fmt.Errorf("max_update_cycle must be at least 1, got %d", c.MaxUpdateCycle)
	}

	return nil
}

// expandHome resolves a leading "~/" against the home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
