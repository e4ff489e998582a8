package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	growthcurve "github.com/lucasjlepore/growth-analyzer"
)

// Config is the on-disk configuration of a plate analysis run.
type Config struct {
	Analysis growthcurve.Config `yaml:",inline"`
	Batch    Batch              `yaml:"batch"`
	Output   Output             `yaml:"output"`
}

// Batch controls the per-well worker pool.
type Batch struct {
	// Workers bounds concurrent engine calls; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0"`
}

// Output controls artifact writing.
type Output struct {
	Format    string `yaml:"format" validate:"oneof=parquet csv"` // parquet|csv
	Overwrite bool   `yaml:"overwrite"`
}

// Default returns a configuration holding every default.
func Default() *Config {
	return &Config{
		Analysis: growthcurve.DefaultConfig(),
		Output:   Output{Format: "parquet"},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default value; present keys are taken as written and validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the analysis options and the run settings.
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	v := validator.New()
	for _, section := range []any{c.Batch, c.Output} {
		if err := v.Struct(section); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				fe := fieldErrs[0]
				return fmt.Errorf("%w: %s=%v fails %s", growthcurve.ErrInvalidOptions, fe.Namespace(), fe.Value(), fe.Tag())
			}
			return err
		}
	}
	return nil
}

// Write persists cfg as YAML.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
