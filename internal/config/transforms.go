package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"transmute/internal/spec"
)

const SupportedSchema = "v1"

// LoadTransforms parses a transforms YAML, validates schema_version and
// resolves a relative workspace against the file's directory.
func LoadTransforms(path string) (spec.File, error) {
	var cfg spec.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, fmt.Errorf("transforms schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}

	if cfg.Workspace == "" {
		cfg.Workspace = ".transmute"
	}
	if !filepath.IsAbs(cfg.Workspace) {
		cfg.Workspace = filepath.Join(filepath.Dir(path), cfg.Workspace)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if cfg.Worker.Address == "" {
		cfg.Worker.Address = "localhost:7070"
	}

	seen := map[string]bool{}
	for i, t := range cfg.Transforms {
		if t.Name == "" || t.Action == "" {
			return cfg, fmt.Errorf("transforms[%d]: name and action are required", i)
		}
		if seen[t.Name] {
			return cfg, fmt.Errorf("transforms[%d]: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
		switch t.Isolation.Mode {
		case "":
			cfg.Transforms[i].Isolation.Mode = "flat"
		case "flat", "isolated":
		default:
			return cfg, fmt.Errorf("transform %s: unsupported isolation mode %q", t.Name, t.Isolation.Mode)
		}
	}
	return cfg, nil
}
