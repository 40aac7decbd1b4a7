// Package config loads gomux's startup configuration: a small YAML file
// at ~/.gomux/gomux.yaml carrying process-wide defaults, plus parsing of
// `-o name=value` command-line option overrides.
//
// Grounded on the teacher's config.Load/LoadFrom (YAML-via-yaml.v3, "file
// absent means empty config, not an error"); the teacher's per-user
// bridges schema is replaced with gomux's own server-startup knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is gomux's startup configuration (spec.md §6: "/etc/gomux.conf
// then ~/.gomux.conf chain"). The YAML file configures the *paths* and
// defaults the server consults before it ever parses a command-language
// config file; the command-language file itself is sourced separately
// through internal/langparse at server start.
type Config struct {
	// SocketDir overrides the default socket directory
	// (internal/socketdir.Dir's $HOME/.gomux/sockets).
	SocketDir string `yaml:"socket_dir,omitempty"`
	// ServerConfigFile is the default command-language script sourced at
	// server start, analogous to tmux's /etc/tmux.conf + ~/.tmux.conf
	// chain (spec.md §6).
	ServerConfigFile string `yaml:"server_config_file,omitempty"`
	// DefaultKeyTable names the root key table new clients start on
	// (internal/keytable.Registry.RootName by default, "root").
	DefaultKeyTable string `yaml:"default_key_table,omitempty"`
}

// Dir returns gomux's configuration directory (~/.gomux).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".gomux")
	}
	return filepath.Join(home, ".gomux")
}

// Load reads gomux.yaml from Dir(). A missing file is not an error; it
// yields a zero-value Config so every caller can apply its own defaults
// uniformly.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(Dir(), "gomux.yaml"))
}

// LoadFrom reads the config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ResolveSocketDir returns cfg.SocketDir if set, else the package-level
// default, mirroring how the teacher's ConfigDir/SocketDir pair always
// resolved to a concrete path regardless of whether a config file exists.
func (c *Config) ResolveSocketDir(defaultDir string) string {
	if c == nil || c.SocketDir == "" {
		return defaultDir
	}
	return c.SocketDir
}

// ParseOverrides parses a list of "name=value" strings from -o startup
// flags into an ordered slice of (name, value) pairs, preserving
// duplicates so later overrides of the same name win in application
// order (the teacher's cmd/agent_setup.go key=value parsing convention).
func ParseOverrides(args []string) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for _, a := range args {
		eq := strings.IndexByte(a, '=')
		if eq < 1 {
			return nil, fmt.Errorf("invalid -o override %q: expected name=value", a)
		}
		name := a[:eq]
		value := a[eq+1:]
		out = append(out, [2]string{name, value})
	}
	return out, nil
}
