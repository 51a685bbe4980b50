// Package config resolves client settings. Precedence: built-in defaults,
// then an optional YAML file, then environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/barale2906/carmot-go/internal/errors"
)

const (
	defaultBaseURL = "http://127.0.0.1:8000/api"
	defaultTimeout = 10 * time.Second
)

// Config holds everything the client and CLI need.
type Config struct {
	AppName string `yaml:"app_name" env:"CARMOT_APP_NAME"`

	API struct {
		BaseURL string        `yaml:"base_url" env:"CARMOT_API_URL"`
		Timeout time.Duration `yaml:"timeout" env:"CARMOT_API_TIMEOUT"`
	} `yaml:"api"`

	// CredentialFile is where the bearer credential is persisted between
	// runs. Empty means keep it in memory only.
	CredentialFile string `yaml:"credential_file" env:"CARMOT_CREDENTIAL_FILE"`

	Log struct {
		Level string `yaml:"level" env:"CARMOT_LOG_LEVEL"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled" env:"CARMOT_METRICS_ENABLED"`
	} `yaml:"metrics"`
}

// Load reads the optional YAML file at path (skipped when path is empty or
// the file does not exist), then lets environment variables override.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing config file is fine; env and defaults cover it.
		case err != nil:
			return nil, errors.Wrapf(err, "config read %s", path)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "config parse %s", path)
			}
		}
	}

	// envdecode reports when nothing in the environment was set; that is
	// not an error here since defaults and the file already apply.
	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, errors.Wrapf(err, "config env decode")
	}

	return cfg, nil
}

func defaults() *Config {
	var cfg Config
	cfg.AppName = "Carmot"
	cfg.API.BaseURL = defaultBaseURL
	cfg.API.Timeout = defaultTimeout
	cfg.Log.Level = "info"
	return &cfg
}

// DefaultCredentialFile places the credential under the user cache dir.
func DefaultCredentialFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", ".carmot-credential.json")
	}
	return filepath.Join(dir, "carmot", "credential.json")
}
