// Package config loads the service configuration from YAML, applying
// defaults and validating required fields.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		// DSN is a pgx connection string for the silver database.
		DSN string `yaml:"dsn" validate:"required"`
	} `yaml:"database"`
	Windows struct {
		// Reference window: the training period, usually one full year
		// of invoices. Dates are YYYY-MM-DD.
		ReferenceStart string `yaml:"reference_start" validate:"required"`
		ReferenceEnd   string `yaml:"reference_end" validate:"required"`
		// Prediction window: must stay inside one calendar year.
		PredictionStart string `yaml:"prediction_start" validate:"required"`
		PredictionEnd   string `yaml:"prediction_end" validate:"required"`
	} `yaml:"windows"`
	Workers  int    `yaml:"workers" default:"4" validate:"min=1"`
	LogLevel string `yaml:"log_level" default:"info" validate:"oneof=trace debug info warn error"`
	Metrics  struct {
		Enabled bool   `yaml:"enabled" default:"false"`
		Addr    string `yaml:"addr" default:":9090"`
	} `yaml:"metrics"`
}

const dateLayout = "2006-01-02"

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment override for the secret-bearing field.
	if v := os.Getenv("ANNUALREF_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}

	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if _, _, _, _, err := c.ParseWindows(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseWindows parses the four window bounds into UTC dates.
func (c *Config) ParseWindows() (refStart, refEnd, predStart, predEnd time.Time, err error) {
	parse := func(name, s string) (time.Time, error) {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("windows.%s: %w", name, err)
		}
		return t.UTC(), nil
	}
	if refStart, err = parse("reference_start", c.Windows.ReferenceStart); err != nil {
		return
	}
	if refEnd, err = parse("reference_end", c.Windows.ReferenceEnd); err != nil {
		return
	}
	if predStart, err = parse("prediction_start", c.Windows.PredictionStart); err != nil {
		return
	}
	predEnd, err = parse("prediction_end", c.Windows.PredictionEnd)
	return
}
