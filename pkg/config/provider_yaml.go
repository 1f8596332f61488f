package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML preference files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads preferences from the YAML file. A missing file yields
// defaults and no error. A malformed file yields defaults and an error
// wrapping ErrConfigRead.
func (y *YAMLProvider) LoadConfig() (*Preferences, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("%w %s: %v", ErrConfigRead, y.filename, err)
	}

	prefs := &Preferences{}
	if err := yaml.UnmarshalStrict(cfgFile, prefs); err != nil {
		return Defaults(), fmt.Errorf("%w %s: %v", ErrConfigRead, y.filename, err)
	}

	if replaced := prefs.ApplyDefaults(); len(replaced) > 0 {
		return prefs, fmt.Errorf("%w %s: unrecognized values for %v, using defaults", ErrConfigRead, y.filename, replaced)
	}

	return prefs, nil
}

// SaveConfig writes preferences to the YAML file, creating parent
// directories as needed
func (y *YAMLProvider) SaveConfig(p *Preferences) error {
	out, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(y.filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(y.filename, out, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Path returns the file backing this provider
func (y *YAMLProvider) Path() string {
	return y.filename
}

// IsReadOnly returns false since YAML preference files are user-editable
func (y *YAMLProvider) IsReadOnly() bool {
	return false
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
