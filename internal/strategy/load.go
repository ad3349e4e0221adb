package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lox/blackjacksim/internal/fileutil"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a strategy configuration from a JSON or YAML file. When the
// file has no name, the file name without extension is used.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read strategy file: %w", err)
	}
	cfg, err := Parse(data, fileutil.FormatFor(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg, nil
}

// Parse decodes a configuration. Unknown fields are rejected so that typos do
// not silently fall back to defaults.
func Parse(data []byte, format fileutil.Format) (Config, error) {
	var cfg Config
	switch format {
	case fileutil.YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse yaml strategy: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse json strategy: %w", err)
		}
	}
	return cfg, nil
}

// SaveFile writes cfg as JSON or YAML depending on the extension of path.
func SaveFile(path string, cfg Config) error {
	if err := fileutil.WriteStructured(path, cfg); err != nil {
		return fmt.Errorf("failed to save strategy: %w", err)
	}
	return nil
}

// Resolve returns a preset by name, or loads the file when ref looks like a
// path.
func Resolve(ref string) (Config, error) {
	if strings.ContainsAny(ref, `/\`) || filepath.Ext(ref) != "" {
		return LoadFile(ref)
	}
	return Preset(ref)
}
