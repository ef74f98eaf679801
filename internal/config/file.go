package config

import (
	"os"

	"gopkg.in/yaml.v3"

	apperrors "aitranscribe/internal/app/errors"
)

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment variables. The result
// is validated.
func Load(path string) (*Config, error) {
	cfg, err := loadBase(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient is Load restricted to the client section. Server-only
// environment variables are neither read nor validated.
func LoadClient(path string) (*Config, error) {
	cfg, err := loadBase(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyClientEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadServer is Load restricted to the server section.
func LoadServer(path string) (*Config, error) {
	cfg, err := loadBase(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyServerEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadBase(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.Newf("config file not found: %s", path)
		}
		return apperrors.Wrapf(err, "failed to read config file %s", path)
	}

	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.Wrap(err, "failed to parse YAML")
	}
	return nil
}
