package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/eugenenazirov/config-composer/internal/compose"
	"github.com/eugenenazirov/config-composer/internal/document"
	"github.com/eugenenazirov/config-composer/internal/preset"
	"github.com/eugenenazirov/config-composer/internal/threshold"
)

var errBaseAndPreset = errors.New("--base and --preset are mutually exclusive")

type mergeOptions struct {
	BasePath      string
	Preset        string
	OverridePaths []string
	Assignments   []string
	Format        document.Format
	OutputPath    string
	Check         bool
}

// runMerge composes the base with every override layer in order (files first,
// then --set assignments) and writes the result to out or opts.OutputPath.
func runMerge(opts mergeOptions, registry preset.Registry, out io.Writer, logger *zap.Logger) error {
	base, source, err := loadBase(opts, registry)
	if err != nil {
		return err
	}

	layers := make([]map[string]any, 0, len(opts.OverridePaths)+1)
	for _, path := range opts.OverridePaths {
		layer, err := document.ReadMappingFile(path)
		if err != nil {
			return fmt.Errorf("load overrides %s: %w", path, err)
		}
		layers = append(layers, layer)
	}

	if len(opts.Assignments) > 0 {
		layer, err := document.Assignments(opts.Assignments)
		if err != nil {
			return fmt.Errorf("parse --set: %w", err)
		}
		layers = append(layers, layer)
	}

	merged, err := compose.Chain(base, layers...)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	if opts.Check {
		thresholds, err := threshold.Extract(merged)
		if err != nil {
			return fmt.Errorf("check thresholds: %w", err)
		}
		if thresholds.Empty() {
			logger.Warn("no coverageThreshold.global values set")
		}
	}

	encoded, err := document.Encode(merged, opts.Format)
	if err != nil {
		return err
	}

	if opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, encoded, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else if _, err := out.Write(encoded); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("configuration composed",
		zap.String("base", source),
		zap.Int("override_layers", len(layers)),
		zap.String("format", string(opts.Format)),
		zap.String("output", opts.OutputPath),
	)
	return nil
}

func loadBase(opts mergeOptions, registry preset.Registry) (map[string]any, string, error) {
	if opts.BasePath != "" && opts.Preset != "" {
		return nil, "", errBaseAndPreset
	}

	if opts.BasePath != "" {
		doc, err := document.ReadFile(opts.BasePath)
		if err != nil {
			return nil, "", fmt.Errorf("load base %s: %w", opts.BasePath, err)
		}
		base, err := compose.ComposeDocument(doc, nil)
		if err != nil {
			return nil, "", fmt.Errorf("load base %s: %w", opts.BasePath, err)
		}
		return base, opts.BasePath, nil
	}

	name := opts.Preset
	if name == "" {
		name = preset.DefaultName
	}
	base, err := registry.Get(name)
	if err != nil {
		return nil, "", err
	}
	return base, "preset:" + name, nil
}
