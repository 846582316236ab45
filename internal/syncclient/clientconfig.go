package syncclient

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Env variables that override the stored client configuration.
const (
	EnvAPIURL   = "LINGUAFLOW_API_URL"
	EnvAPIToken = "LINGUAFLOW_API_TOKEN"
)

// ClientConfig is the CLI-side state persisted between invocations.
type ClientConfig struct {
	APIURL         string `toml:"api_url"`
	Token          string `toml:"token"`
	CurrentProject int64  `toml:"current_project"`
}

// DefaultClientConfigPath returns the per-user client config location.
func DefaultClientConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "linguaflow", "client.toml"), nil
}

// LoadClientConfig reads the client config from path, or the default
// location when path is empty. A missing file yields a zero config.
// Environment variables override the stored API URL and token.
func LoadClientConfig(path string) (*ClientConfig, error) {
	if path == "" {
		var err error
		path, err = DefaultClientConfigPath()
		if err != nil {
			return nil, err
		}
	}

	var cfg ClientConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// First run, nothing stored yet.
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		cfg.Token = v
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "http://127.0.0.1:8911"
	}
	return &cfg, nil
}

// SaveClientConfig writes the config to path, or the default location when
// path is empty. The file is created with user-only permissions because it
// holds the API token.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	if path == "" {
		var err error
		path, err = DefaultClientConfigPath()
		if err != nil {
			return err
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode client config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
