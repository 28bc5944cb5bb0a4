package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the CLI.
const (
	EnvURL    = "MINI_IPAM_URL"
	EnvToken  = "MINI_IPAM_TOKEN"
	EnvConfig = "MINI_IPAM_CONFIG"

	// DefaultURL is used when no flag, variable or file names a server.
	DefaultURL = "http://localhost:3001"
)

// FileConfig is the YAML config file.
//
//	urls:
//	  - http://ipam1.internal:3001
//	  - http://ipam2.internal:3001
//	token: mipam_...
//	timeout: 10s
type FileConfig struct {
	URLs    []string `yaml:"urls"`
	Token   string   `yaml:"token"`
	Timeout string   `yaml:"timeout"`
}

// Settings are the effective connection settings.
type Settings struct {
	URLs    []string
	Token   string
	Timeout time.Duration

	// Source names where the URLs came from: flag, env, file or default.
	Source string
}

// DefaultConfigPath returns ~/.config/mini-ipam/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mini-ipam", "config.yaml")
}

// LoadFileConfig reads the config file at path. A missing file is only an
// error when required is set.
func LoadFileConfig(path string, required bool) (*FileConfig, error) {
	cfg := &FileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// resolveSettings applies flags over environment over file.
func resolveSettings(o *rootOptions) (Settings, error) {
	getenv := o.getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	path, required := o.configPath, true
	if path == "" {
		path, required = getenv(EnvConfig), true
	}
	if path == "" {
		path, required = DefaultConfigPath(), false
	}

	file, err := LoadFileConfig(path, required)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	switch {
	case len(splitURLs(o.urls)) > 0:
		s.URLs, s.Source = splitURLs(o.urls), "flag"
	case getenv(EnvURL) != "":
		s.URLs, s.Source = splitURLs([]string{getenv(EnvURL)}), "env"
	case len(splitURLs(file.URLs)) > 0:
		s.URLs, s.Source = splitURLs(file.URLs), "file"
	default:
		s.URLs, s.Source = []string{DefaultURL}, "default"
	}

	switch {
	case o.token != "":
		s.Token = o.token
	case getenv(EnvToken) != "":
		s.Token = getenv(EnvToken)
	default:
		s.Token = file.Token
	}

	s.Timeout = o.timeout
	if s.Timeout == 0 && file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid timeout %q in %s: %w", file.Timeout, path, err)
		}
		s.Timeout = d
	}

	return s, nil
}

// splitURLs flattens comma-separated entries and drops blanks.
func splitURLs(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, u := range strings.Split(entry, ",") {
			if u = strings.TrimSpace(u); u != "" {
				out = append(out, u)
			}
		}
	}
	return out
}
