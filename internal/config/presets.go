package config

import (
	"sort"

	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/models"
)

func preset(model, scenario string, years int) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	cfg.Forcing = ForcingConfig{Scenario: scenario, Level: conversion.ForcingDoubling, Years: years}
	return cfg
}

var Presets = map[string]map[string]*Config{
	models.NameTwoLayer: {
		"abrupt-2x": preset(models.NameTwoLayer, "abrupt-2x", 150),
		"abrupt-4x": preset(models.NameTwoLayer, "abrupt-4x", 150),
		"1pct":      preset(models.NameTwoLayer, "1pct", 140),
	},
	models.NameImpulseResponse: {
		"abrupt-2x": preset(models.NameImpulseResponse, "abrupt-2x", 150),
		"abrupt-4x": preset(models.NameImpulseResponse, "abrupt-4x", 150),
		"1pct":      preset(models.NameImpulseResponse, "1pct", 140),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
