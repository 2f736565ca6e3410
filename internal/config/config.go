package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/forcing"
	"github.com/san-kum/twolayer/internal/models"
	"github.com/san-kum/twolayer/internal/quantity"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel    = models.NameTwoLayer
	DefaultScenario = "abrupt-2x"
	DefaultYears    = 150
	DefaultWorkers  = 4
)

var ErrUnknownModel = errors.New("config: unknown model")

// Config describes one scenario run. Only the parameter block matching
// Model is used.
type Config struct {
	Model           string                               `yaml:"model"`
	TwoLayer        conversion.TwoLayerParameters        `yaml:"two_layer"`
	ImpulseResponse conversion.ImpulseResponseParameters `yaml:"impulse_response"`
	DeltaT          quantity.Quantity                    `yaml:"delta_t"`
	Forcing         ForcingConfig                        `yaml:"forcing"`
	Workers         int                                  `yaml:"workers,omitempty"`
}

// ForcingConfig selects a named scenario, or a CSV file when CSV is set.
type ForcingConfig struct {
	Scenario string            `yaml:"scenario"`
	Level    quantity.Quantity `yaml:"level,omitempty"`
	Years    int               `yaml:"years"`
	CSV      string            `yaml:"csv,omitempty"`
	Unit     string            `yaml:"unit,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:           DefaultModel,
		TwoLayer:        models.DefaultTwoLayerParameters(),
		ImpulseResponse: models.DefaultImpulseResponseParameters(),
		DeltaT:          models.DefaultDeltaT,
		Forcing: ForcingConfig{
			Scenario: DefaultScenario,
			Level:    conversion.ForcingDoubling,
			Years:    DefaultYears,
		},
		Workers: DefaultWorkers,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the model name and the active parameter block.
func (c *Config) Validate() error {
	switch c.Model {
	case models.NameTwoLayer:
		if _, err := models.NewTwoLayer(c.TwoLayer, models.WithDeltaT(c.DeltaT)); err != nil {
			return err
		}
	case models.NameImpulseResponse:
		if _, err := models.NewImpulseResponse(c.ImpulseResponse, models.WithDeltaT(c.DeltaT)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModel, c.Model)
	}
	if c.Forcing.CSV == "" && c.Forcing.Years <= 0 {
		return fmt.Errorf("%w: years must be positive", forcing.ErrEmpty)
	}
	return nil
}

// ForcingSeries builds the driver series the config describes.
func (c *Config) ForcingSeries() (quantity.Series, error) {
	f := c.Forcing
	if f.CSV != "" {
		return forcing.LoadCSVFile(f.CSV, f.Unit)
	}
	level := f.Level
	if level.Unit == "" {
		level.Unit = conversion.UnitFlux
	}
	return forcing.Named(f.Scenario, level, f.Years)
}
