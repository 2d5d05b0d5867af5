// Package config loads and validates a broker's on-disk configuration.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/gradewatch-queue/domain/config"
)

// Loader turns a YAML or JSON document into a validated BrokerConfig.
type Loader struct {
	// ExpandEnv substitutes ${VAR} references in the SMTP credential
	// fields after parsing.
	ExpandEnv bool
	// StrictEnv turns an unresolved reference into a load error instead
	// of leaving the "${VAR}" text in the field.
	StrictEnv bool
	// Validate runs the configuration validator before returning.
	Validate bool
}

// NewLoader returns a Loader with env expansion and validation on, the
// defaults a deployed broker wants.
func NewLoader() *Loader {
	return &Loader{
		ExpandEnv: true,
		StrictEnv: false,
		Validate:  true,
	}
}

// LoaderOption customizes a Loader built by NewLoaderWithOptions.
type LoaderOption func(*Loader)

// WithEnvExpansion toggles SMTP credential substitution.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) { l.ExpandEnv = enabled }
}

// WithStrictEnv toggles strict env-reference resolution.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) { l.StrictEnv = enabled }
}

// WithValidation toggles the post-parse validation pass.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) { l.Validate = enabled }
}

// NewLoaderWithOptions builds a Loader from NewLoader's defaults,
// applying each opt in order.
func NewLoaderWithOptions(opts ...LoaderOption) *Loader {
	l := NewLoader()
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Format is a config document's serialization.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// LoadFile reads path and loads it, guessing the format from the file
// extension. The broker's conventional config name (config.cfg) carries
// no format-bearing extension, so anything but ".json" is read as YAML
// rather than rejected.
func (l *Loader) LoadFile(path string) (*config.BrokerConfig, error) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("stat config file: %w", err)
	case info.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", config.ErrInvalidFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	format := FormatYAML
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = FormatJSON
	}
	return l.Load(f, format)
}

// Load parses r as format, overlaying the document onto
// config.DefaultBrokerConfig so a partial file only overrides the fields
// it sets, then resolves SMTP secrets and validates if so configured.
func (l *Loader) Load(r io.Reader, format Format) (*config.BrokerConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	defaults := config.DefaultBrokerConfig()
	cfg := &defaults
	if err := decode(data, format, cfg); err != nil {
		return nil, err
	}

	if l.ExpandEnv {
		if err := expandSMTPSecrets(&cfg.SMTP, l.StrictEnv); err != nil {
			return nil, err
		}
	}

	if l.Validate {
		validator := config.NewValidator()
		if errs := validator.Validate(cfg); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
		}
	}

	return cfg, nil
}

func decode(data []byte, format Format, cfg *config.BrokerConfig) error {
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
		}
	default:
		return fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}
	return nil
}

// LoadString loads configuration from an in-memory document.
func (l *Loader) LoadString(content string, format Format) (*config.BrokerConfig, error) {
	return l.Load(strings.NewReader(content), format)
}

// LoadBytes loads configuration from an in-memory document.
func (l *Loader) LoadBytes(data []byte, format Format) (*config.BrokerConfig, error) {
	return l.Load(strings.NewReader(string(data)), format)
}
